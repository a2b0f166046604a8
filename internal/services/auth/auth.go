// Package auth содержит логику бизнес-уровня для регистрации, входа,
// выхода и ротации refresh-токенов.
//
// Жизненный цикл сессии: выпуск пары токенов при signup/signin,
// ротация хэша refresh-токена при каждом refresh, сброс хэша при logout.
// Хранится только хэш refresh-токена, сам токен живёт у клиента.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/invoice-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/password"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/sl"
	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

// Ошибки уровня сессии. Обработчики сопоставляют их с HTTP статусами.
var (
	// ErrUserExists — email или username уже заняты.
	ErrUserExists = errors.New("email or username is already taken")
	// ErrInvalidCredentials — неверная пара email/пароль. Сообщение общее,
	// наружу не уходит, существует ли email.
	ErrInvalidCredentials = errors.New("credentials are not valid")
	// ErrRefreshDenied — refresh-токен отозван, не совпал с хэшем
	// или сессии нет.
	ErrRefreshDenied = errors.New("refresh denied")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя с хэшем пароля.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByUsername возвращает пользователя без хэша пароля.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpdateRefreshHash перезаписывает хэш текущего refresh-токена.
	UpdateRefreshHash(ctx context.Context, userUID, hashedRt string) error
	// ClearRefreshHash сбрасывает хэш, только если он установлен.
	ClearRefreshHash(ctx context.Context, userUID string) error
}

// Result — результат операции, выпускающей токены: урезанный пользователь
// и пара токенов. Секретные поля в Result не попадают.
type Result struct {
	User   models.UserInfo
	Tokens jwt.Pair
}

// Service реализует рабочий процесс сессий аутентификации.
type Service struct {
	users UserRepository
	maker jwt.Maker
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users: users,
		maker: maker,
		log:   log,
	}
}

// Register создает нового пользователя, выпускает пару токенов
// и сохраняет хэш refresh-токена.
//
// Email и username проверяются двумя независимыми выборками:
// совпадение любого из них блокирует регистрацию.
func (s *Service) Register(ctx context.Context, username, email, rawPassword string) (*Result, error) {
	const op = "auth.Register"

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Хэширование на границе записи, а не в хуках хранилища.
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid

	tokens, err := s.issueTokens(ctx, uid, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.String("uid", uid))
	return &Result{User: user.Sanitize(), Tokens: tokens}, nil
}

// Login проверяет пароль пользователя и выпускает новую пару токенов.
//
// Несуществующий email и неверный пароль оба возвращают
// ErrInvalidCredentials, пути различаются только в логах.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Result, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.Info("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		s.log.Info("login attempt with wrong password", slog.String("uid", user.UID))
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("uid", user.UID))
	return &Result{User: user.Sanitize(), Tokens: tokens}, nil
}

// Logout сбрасывает хэш refresh-токена пользователя.
// Идемпотентен: повторный выход ошибки не возвращает.
func (s *Service) Logout(ctx context.Context, userUID string) error {
	const op = "auth.Logout"

	if err := s.users.ClearRefreshHash(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user logged out", slog.String("uid", userUID))
	return nil
}

// Refresh проверяет предъявленный refresh-токен по сохранённому хэшу
// и выпускает новую пару. Ротация одноразовая: после успешного вызова
// предыдущий refresh-токен перестаёт проходить проверку.
//
// Два конкурентных вызова с одним токеном могут оба пройти проверку
// до того, как первая ротация зафиксируется. Гонка известна и оставлена,
// compare-and-swap на хэше не делается.
func (s *Service) Refresh(ctx context.Context, userUID, rawToken string) (*Result, error) {
	const op = "auth.Refresh"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshDenied
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.HashedRt == nil {
		s.log.Info("refresh attempt without active session", slog.String("uid", userUID))
		return nil, ErrRefreshDenied
	}
	if err := password.CompareTokenHash(*user.HashedRt, rawToken); err != nil {
		s.log.Info("refresh attempt with stale token", slog.String("uid", userUID))
		return nil, ErrRefreshDenied
	}

	tokens, err := s.issueTokens(ctx, user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("tokens refreshed", slog.String("uid", userUID))
	return &Result{User: user.Sanitize(), Tokens: tokens}, nil
}

// issueTokens выпускает пару и ротирует сохранённый хэш refresh-токена.
// Вызывается из всех трёх путей, выдающих токены: signup, signin, refresh.
func (s *Service) issueTokens(ctx context.Context, userUID, email string) (jwt.Pair, error) {
	tokens, err := s.maker.GeneratePair(userUID, email)
	if err != nil {
		return jwt.Pair{}, err
	}
	hashedRt, err := password.GetTokenHash(tokens.RefreshToken)
	if err != nil {
		return jwt.Pair{}, err
	}
	if err := s.users.UpdateRefreshHash(ctx, userUID, hashedRt); err != nil {
		s.log.Error("failed to rotate refresh hash", sl.Err(err))
		return jwt.Pair{}, err
	}
	return tokens, nil
}
