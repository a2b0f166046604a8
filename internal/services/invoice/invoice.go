// Package invoice содержит бизнес-логику работы со счетами:
// owner-scoped выборку, создание с вычислением производных полей,
// редактирование, отметку оплаты и удаление, включая кеширование.
//
// Каждая мутация проверяет владельца: счет может менять только тот,
// кто его создал. Проверка выполняется по схеме read-then-act без
// сериализуемой изоляции, гонка двух конкурентных мутаций одного счета
// разрешается как last-write-wins или not-found у проигравшего.
package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/invoice-manager/internal/lib/ordercode"
	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

// Ошибки, которые обработчики сопоставляют с HTTP статусами.
var (
	// ErrNotFound — счета с таким ID нет.
	ErrNotFound = errors.New("invoice does not exist")
	// ErrNotOwner — счет принадлежит другому пользователю.
	ErrNotOwner = errors.New("invoice belongs to another user")
)

// Repository определяет методы для работы со счетами в хранилище.
type Repository interface {
	// CreateInvoice добавляет новый счет и возвращает его ID.
	CreateInvoice(ctx context.Context, inv models.Invoice) (int, error)
	// ReadInvoice возвращает счет по ID.
	ReadInvoice(ctx context.Context, id int) (*models.Invoice, error)
	// UpdateInvoice перезаписывает изменяемые поля счета.
	UpdateInvoice(ctx context.Context, inv models.Invoice, id int) (int, error)
	// UpdateInvoiceStatus выставляет статус счета.
	UpdateInvoiceStatus(ctx context.Context, id int, status string) (int, error)
	// RemoveInvoice удаляет счет по ID.
	RemoveInvoice(ctx context.Context, id int) (int, error)
	// ListInvoices возвращает счета владельца с фильтром и пагинацией.
	ListInvoices(ctx context.Context, ownerUID string, filter models.InvoiceFilter) ([]*models.Invoice, error)
	// CountInvoices возвращает число счетов владельца по фильтру.
	CountInvoices(ctx context.Context, ownerUID string, filter models.InvoiceFilter) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// ListResult — страница счетов и общее количество по фильтру.
type ListResult struct {
	Data  []*models.Invoice `json:"data"`
	Count int               `json:"count"`
}

// Service реализует бизнес-логику работы со счетами.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// List возвращает счета владельца с общим количеством по фильтру.
// Limit и offset применяются независимо, верхней границы нет —
// её задаёт вызывающая сторона.
func (s *Service) List(ctx context.Context, ownerUID string, filter models.InvoiceFilter) (*ListResult, error) {
	entries, err := s.repo.ListInvoices(ctx, ownerUID, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountInvoices(ctx, ownerUID, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Data: entries, Count: count}, nil
}

// Read возвращает счет по ID, если он принадлежит вызывающему.
// Сначала проверяется кеш, проверка владельца выполняется в обоих случаях.
func (s *Service) Read(ctx context.Context, id int, callerUID string) (*models.Invoice, error) {
	var cached models.Invoice
	cacheKey := fmt.Sprintf("invoice:%d", id)
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		if cached.OwnerUID != callerUID {
			return nil, ErrNotOwner
		}
		return &cached, nil
	}

	inv, err := s.getOwned(ctx, id, callerUID)
	if err != nil {
		return nil, err
	}
	s.cacheInvoice(inv)
	return inv, nil
}

// Create создает новый счет владельца с указанным статусом.
//
// Код заказа генерируется случайно в формате AA0000. Дата оплаты
// вычисляется как createdAt + paymentTerms дней, только когда заданы
// оба поля, иначе остаётся пустой. Единый путь для конечных точек
// создания (status=pending) и черновика (status=draft).
func (s *Service) Create(ctx context.Context, ownerUID string, req models.DummyInvoice, status string) (*models.Invoice, error) {
	const op = "invoice.Create"

	inv, err := buildInvoice(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	inv.OrderCode = ordercode.Generate()
	inv.Status = status
	inv.OwnerUID = ownerUID

	id, err := s.repo.CreateInvoice(ctx, *inv)
	if err != nil {
		return nil, err
	}
	inv.ID = id

	s.log.Info("created new invoice", slog.Int("id", id), slog.String("status", status))
	s.cacheInvoice(inv)
	return inv, nil
}

// Edit перезаписывает все изменяемые поля счета (replace, не merge).
// Код заказа, владелец и статус не меняются.
func (s *Service) Edit(ctx context.Context, id int, callerUID string, req models.DummyInvoice) (*models.Invoice, error) {
	const op = "invoice.Edit"

	existing, err := s.getOwned(ctx, id, callerUID)
	if err != nil {
		return nil, err
	}

	updated, err := buildInvoice(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated.ID = existing.ID
	updated.OrderCode = existing.OrderCode
	updated.Status = existing.Status
	updated.OwnerUID = existing.OwnerUID

	if _, err := s.repo.UpdateInvoice(ctx, *updated, id); err != nil {
		return nil, err
	}

	s.log.Info("updated invoice", slog.Int("id", id))
	s.cacheInvoice(updated)
	return updated, nil
}

// MarkPaid выставляет статус paid. Повторная отметка уже оплаченного
// счета проходит без ошибки, обратных переходов проверка не делает.
func (s *Service) MarkPaid(ctx context.Context, id int, callerUID string) (*models.Invoice, error) {
	inv, err := s.getOwned(ctx, id, callerUID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateInvoiceStatus(ctx, id, models.StatusPaid); err != nil {
		return nil, err
	}
	inv.Status = models.StatusPaid

	s.log.Info("marked invoice as paid", slog.Int("id", id))
	s.cacheInvoice(inv)
	return inv, nil
}

// Remove удаляет счет владельца и инвалидирует кеш.
func (s *Service) Remove(ctx context.Context, id int, callerUID string) error {
	if _, err := s.getOwned(ctx, id, callerUID); err != nil {
		return err
	}

	cacheKey := fmt.Sprintf("invoice:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	if _, err := s.repo.RemoveInvoice(ctx, id); err != nil {
		return err
	}
	s.log.Info("removed invoice", slog.Int("id", id))
	return nil
}

// getOwned загружает счет и проверяет владельца.
func (s *Service) getOwned(ctx context.Context, id int, callerUID string) (*models.Invoice, error) {
	inv, err := s.repo.ReadInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inv.OwnerUID != callerUID {
		return nil, ErrNotOwner
	}
	return inv, nil
}

// buildInvoice конвертирует DTO в модель и вычисляет производные поля.
func buildInvoice(req models.DummyInvoice) (*models.Invoice, error) {
	inv := &models.Invoice{
		Description:   req.Description,
		PaymentTerms:  req.PaymentTerms,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		SenderAddress: req.SenderAddress,
		ClientAddress: req.ClientAddress,
		Items:         req.Items,
		Total:         req.Total,
	}
	if req.CreatedAt != "" {
		createdAt, err := time.Parse("2006-01-02", req.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created date: %w", err)
		}
		inv.CreatedAt = &createdAt

		if req.PaymentTerms > 0 {
			paymentDue := createdAt.AddDate(0, 0, req.PaymentTerms)
			inv.PaymentDue = &paymentDue
		}
	}
	return inv, nil
}

func (s *Service) cacheInvoice(inv *models.Invoice) {
	cacheKey := fmt.Sprintf("invoice:%d", inv.ID)
	if err := s.cache.Set(cacheKey, inv, time.Hour); err != nil {
		s.log.Warn("failed to cache invoice", slog.String("key", cacheKey), slog.Any("err", err))
	}
}
