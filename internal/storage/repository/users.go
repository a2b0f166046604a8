package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Пароль должен быть захэширован вызывающей стороной до записи.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по email вместе с хэшем пароля.
// Единственный метод выборки, отдающий password_hash: он нужен только
// на входе (signin).
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, hashed_rt, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)

	var hashedRt sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&hashedRt, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if hashedRt.Valid {
		u.HashedRt = &hashedRt.String
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username без хэша пароля.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, hashed_rt, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)

	var hashedRt sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &hashedRt, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if hashedRt.Valid {
		u.HashedRt = &hashedRt.String
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID без хэша пароля.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, hashed_rt, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var hashedRt sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &hashedRt, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if hashedRt.Valid {
		u.HashedRt = &hashedRt.String
	}
	return u, nil
}

// UpdateRefreshHash перезаписывает хэш текущего refresh-токена пользователя.
// Вызывается после каждого выпуска пары токенов: предыдущий refresh-токен
// перестаёт проходить проверку.
func (s *Storage) UpdateRefreshHash(ctx context.Context, userUID, hashedRt string) error {
	const op = "storage.UpdateRefreshHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET hashed_rt = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, hashedRt, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClearRefreshHash сбрасывает хэш refresh-токена, только если он установлен.
// Повторный вызов для разлогиненного пользователя ничего не меняет.
func (s *Storage) ClearRefreshHash(ctx context.Context, userUID string) error {
	const op = "storage.ClearRefreshHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET hashed_rt = NULL
			  WHERE uid = $1 AND hashed_rt IS NOT NULL`
	_, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
