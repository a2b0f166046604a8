package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

// CreateInvoice вставляет новый счет и возвращает его ID.
func (s *Storage) CreateInvoice(ctx context.Context, inv models.Invoice) (int, error) {
	const op = "storage.CreateInvoice"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	senderAddress, clientAddress, items, err := marshalJSONFields(inv)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO invoice (order_code, created_at, payment_due, description,
			      payment_terms, client_name, client_email, status, sender_address,
			      client_address, items, total, owner_uid)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		inv.OrderCode, inv.CreatedAt, inv.PaymentDue, nullString(inv.Description),
		inv.PaymentTerms, nullString(inv.ClientName), nullString(inv.ClientEmail),
		inv.Status, senderAddress, clientAddress, items, inv.Total, inv.OwnerUID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadInvoice возвращает счет по его ID.
// Если счета нет, ошибка оборачивает sql.ErrNoRows.
func (s *Storage) ReadInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	const op = "storage.ReadInvoice"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, order_code, created_at, payment_due, description, payment_terms,
			      client_name, client_email, status, sender_address, client_address,
			      items, total, owner_uid
			  FROM invoice WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}

// UpdateInvoice перезаписывает все изменяемые поля счета по его ID
// и возвращает количество изменённых строк. Код заказа, владелец и статус
// при этом не трогаются.
func (s *Storage) UpdateInvoice(ctx context.Context, inv models.Invoice, id int) (int, error) {
	const op = "storage.UpdateInvoice"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	senderAddress, clientAddress, items, err := marshalJSONFields(inv)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE invoice
			  SET created_at = $1, payment_due = $2, description = $3, payment_terms = $4,
			      client_name = $5, client_email = $6, sender_address = $7,
			      client_address = $8, items = $9, total = $10
			  WHERE id = $11`
	result, err := s.DB.ExecContext(ctx, query,
		inv.CreatedAt, inv.PaymentDue, nullString(inv.Description), inv.PaymentTerms,
		nullString(inv.ClientName), nullString(inv.ClientEmail), senderAddress,
		clientAddress, items, inv.Total, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateInvoiceStatus выставляет статус счета по его ID.
func (s *Storage) UpdateInvoiceStatus(ctx context.Context, id int, status string) (int, error) {
	const op = "storage.UpdateInvoiceStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE invoice SET status = $1 WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveInvoice удаляет счет по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveInvoice(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveInvoice"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM invoice WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListInvoices возвращает счета владельца с фильтром по статусам и пагинацией.
// Выборка всегда ограничена owner_uid, счета других пользователей
// попасть в результат не могут.
func (s *Storage) ListInvoices(ctx context.Context, ownerUID string, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	const op = "storage.ListInvoices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query, args := buildListQuery(ownerUID, filter, false)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountInvoices возвращает общее число счетов владельца по тому же фильтру
// статусов, без учёта limit и offset.
func (s *Storage) CountInvoices(ctx context.Context, ownerUID string, filter models.InvoiceFilter) (int, error) {
	const op = "storage.CountInvoices"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query, args := buildListQuery(ownerUID, filter, true)
	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// buildListQuery собирает запрос выборки или подсчёта счетов владельца.
// Для статусов генерируются позиционные плейсхолдеры с семантикой IN.
func buildListQuery(ownerUID string, filter models.InvoiceFilter, count bool) (string, []any) {
	var sb strings.Builder
	if count {
		sb.WriteString(`SELECT COUNT(*) FROM invoice WHERE owner_uid = $1`)
	} else {
		sb.WriteString(`SELECT id, order_code, created_at, payment_due, description, payment_terms,
			client_name, client_email, status, sender_address, client_address,
			items, total, owner_uid
		FROM invoice WHERE owner_uid = $1`)
	}
	args := []any{ownerUID}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			args = append(args, status)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		sb.WriteString(" AND status IN (" + strings.Join(placeholders, ", ") + ")")
	}

	if !count {
		sb.WriteString(" ORDER BY id")
		if filter.Limit > 0 {
			args = append(args, filter.Limit)
			sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
		}
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
		}
	}
	return sb.String(), args
}

// scanner покрывает *sql.Row и *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (*models.Invoice, error) {
	var inv models.Invoice
	var description, clientName, clientEmail sql.NullString
	var paymentTerms sql.NullInt64
	var senderAddress, clientAddress, items []byte

	if err := row.Scan(&inv.ID, &inv.OrderCode, &inv.CreatedAt, &inv.PaymentDue,
		&description, &paymentTerms, &clientName, &clientEmail, &inv.Status,
		&senderAddress, &clientAddress, &items, &inv.Total, &inv.OwnerUID); err != nil {
		return nil, err
	}

	inv.Description = description.String
	inv.ClientName = clientName.String
	inv.ClientEmail = clientEmail.String
	inv.PaymentTerms = int(paymentTerms.Int64)

	if len(senderAddress) > 0 {
		if err := json.Unmarshal(senderAddress, &inv.SenderAddress); err != nil {
			return nil, err
		}
	}
	if len(clientAddress) > 0 {
		if err := json.Unmarshal(clientAddress, &inv.ClientAddress); err != nil {
			return nil, err
		}
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

func marshalJSONFields(inv models.Invoice) (senderAddress, clientAddress, items []byte, err error) {
	if inv.SenderAddress != nil {
		if senderAddress, err = json.Marshal(inv.SenderAddress); err != nil {
			return nil, nil, nil, err
		}
	}
	if inv.ClientAddress != nil {
		if clientAddress, err = json.Marshal(inv.ClientAddress); err != nil {
			return nil, nil, nil, err
		}
	}
	if inv.Items != nil {
		if items, err = json.Marshal(inv.Items); err != nil {
			return nil, nil, nil, err
		}
	}
	return senderAddress, clientAddress, items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
