package auth

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/invoice-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/password"
	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) UpdateRefreshHash(ctx context.Context, userUID, hashedRt string) error {
	return m.Called(ctx, userUID, hashedRt).Error(0)
}
func (m *RepoMock) ClearRefreshHash(ctx context.Context, userUID string) error {
	return m.Called(ctx, userUID).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestMaker(t *testing.T) jwt.Maker {
	maker, err := jwt.NewMaker("at_secret_test", "rt_secret_test", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return maker
}

func wrappedNoRows() error {
	// повторяет обёртку слоя хранилища
	return fmt.Errorf("storage.GetUser: %w", sql.ErrNoRows)
}

func TestService_Register(t *testing.T) {
	const uid = "550e8400-e29b-41d4-a716-446655440000"
	existing := &models.User{UID: uid, Email: "taken@example.com", Username: "taken"}

	tests := []struct {
		name       string
		username   string
		email      string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name:     "успешная регистрация",
			username: "newuser",
			email:    "new@example.com",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "new@example.com").Return(nil, wrappedNoRows()).Once()
				r.On("GetUserByUsername", mock.Anything, "newuser").Return(nil, wrappedNoRows()).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "new@example.com" && u.Username == "newuser" &&
						u.PasswordHash != "" && u.PasswordHash != "secret123"
				})).Return(uid, nil).Once()
				r.On("UpdateRefreshHash", mock.Anything, uid, mock.AnythingOfType("string")).Return(nil).Once()
			},
		},
		{
			name:     "email уже занят",
			username: "newuser",
			email:    "taken@example.com",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "taken@example.com").Return(existing, nil).Once()
			},
			wantErr: ErrUserExists,
		},
		{
			name:     "username уже занят",
			username: "taken",
			email:    "new@example.com",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "new@example.com").Return(nil, wrappedNoRows()).Once()
				r.On("GetUserByUsername", mock.Anything, "taken").Return(existing, nil).Once()
			},
			wantErr: ErrUserExists,
		},
		{
			name:     "заняты и email и username",
			username: "taken",
			email:    "taken@example.com",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "taken@example.com").Return(existing, nil).Once()
			},
			wantErr: ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			service := New(repo, newTestMaker(t), newNoopLogger())
			res, err := service.Register(context.Background(), tt.username, tt.email, "secret123")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uid, res.User.UID)
				assert.Equal(t, tt.email, res.User.Email)
				assert.NotEmpty(t, res.Tokens.AccessToken)
				assert.NotEmpty(t, res.Tokens.RefreshToken)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	const uid = "550e8400-e29b-41d4-a716-446655440000"
	hashed, err := password.GetHash("secret123")
	require.NoError(t, err)
	user := &models.User{UID: uid, Email: "user@example.com", Username: "user", PasswordHash: hashed}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name:     "успешный вход",
			email:    "user@example.com",
			password: "secret123",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
				r.On("UpdateRefreshHash", mock.Anything, uid, mock.AnythingOfType("string")).Return(nil).Once()
			},
		},
		{
			name:     "неизвестный email",
			email:    "nobody@example.com",
			password: "secret123",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, wrappedNoRows()).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "неверный пароль",
			email:    "user@example.com",
			password: "wrongpass",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			service := New(repo, newTestMaker(t), newNoopLogger())
			res, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uid, res.User.UID)

				// оба токена декодируются своими секретами с теми же claims
				maker := newTestMaker(t)
				accessClaims, err := maker.ParseAccess(res.Tokens.AccessToken)
				require.NoError(t, err)
				refreshClaims, err := maker.ParseRefresh(res.Tokens.RefreshToken)
				require.NoError(t, err)
				assert.Equal(t, uid, accessClaims.UserUID)
				assert.Equal(t, uid, refreshClaims.UserUID)
				assert.Equal(t, "user@example.com", accessClaims.Email)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Refresh_RotatesHash(t *testing.T) {
	const uid = "550e8400-e29b-41d4-a716-446655440000"
	repo := new(RepoMock)
	service := New(repo, newTestMaker(t), newNoopLogger())

	// выпускаем первую пару и запоминаем её хэш как "сохранённый"
	var storedHash string
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, wrappedNoRows()).Once()
	repo.On("GetUserByUsername", mock.Anything, "user").Return(nil, wrappedNoRows()).Once()
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(uid, nil).Once()
	repo.On("UpdateRefreshHash", mock.Anything, uid, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).Return(nil)

	first, err := service.Register(context.Background(), "user", "user@example.com", "secret123")
	require.NoError(t, err)
	oldToken := first.Tokens.RefreshToken

	userWithHash := func() *models.User {
		h := storedHash
		return &models.User{UID: uid, Email: "user@example.com", Username: "user", HashedRt: &h}
	}

	// первый refresh со старым токеном проходит и ротирует хэш
	repo.On("GetUser", mock.Anything, uid).Return(userWithHash(), nil).Once()
	second, err := service.Refresh(context.Background(), uid, oldToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, second.Tokens.RefreshToken)

	// второй refresh с тем же старым токеном отклоняется: хэш уже заменён
	repo.On("GetUser", mock.Anything, uid).Return(userWithHash(), nil).Once()
	_, err = service.Refresh(context.Background(), uid, oldToken)
	assert.ErrorIs(t, err, ErrRefreshDenied)
}

func TestService_Refresh_Denied(t *testing.T) {
	const uid = "550e8400-e29b-41d4-a716-446655440000"
	staleHash, err := password.GetTokenHash("some-other-token")
	require.NoError(t, err)

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
	}{
		{
			name: "нет сохранённого хэша после logout",
			setupMocks: func(r *RepoMock) {
				r.On("GetUser", mock.Anything, uid).
					Return(&models.User{UID: uid, Email: "user@example.com"}, nil).Once()
			},
		},
		{
			name: "токен не совпадает с хэшем",
			setupMocks: func(r *RepoMock) {
				r.On("GetUser", mock.Anything, uid).
					Return(&models.User{UID: uid, Email: "user@example.com", HashedRt: &staleHash}, nil).Once()
			},
		},
		{
			name: "пользователь не найден",
			setupMocks: func(r *RepoMock) {
				r.On("GetUser", mock.Anything, uid).Return(nil, wrappedNoRows()).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			service := New(repo, newTestMaker(t), newNoopLogger())
			res, err := service.Refresh(context.Background(), uid, "presented-refresh-token")
			assert.ErrorIs(t, err, ErrRefreshDenied)
			assert.Nil(t, res)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Logout_Idempotent(t *testing.T) {
	const uid = "550e8400-e29b-41d4-a716-446655440000"
	repo := new(RepoMock)
	repo.On("ClearRefreshHash", mock.Anything, uid).Return(nil).Twice()

	service := New(repo, newTestMaker(t), newNoopLogger())

	assert.NoError(t, service.Logout(context.Background(), uid))
	// повторный выход тоже проходит без ошибки
	assert.NoError(t, service.Logout(context.Background(), uid))
	repo.AssertExpectations(t)
}

func TestService_Register_SanitizedUser(t *testing.T) {
	const uid = "550e8400-e29b-41d4-a716-446655440000"
	repo := new(RepoMock)
	repo.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, wrappedNoRows()).Once()
	repo.On("GetUserByUsername", mock.Anything, mock.Anything).Return(nil, wrappedNoRows()).Once()
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(uid, nil).Once()
	repo.On("UpdateRefreshHash", mock.Anything, uid, mock.AnythingOfType("string")).Return(nil).Once()

	service := New(repo, newTestMaker(t), newNoopLogger())
	res, err := service.Register(context.Background(), "user", "user@example.com", "secret123")
	require.NoError(t, err)

	// в ответе нет ни пароля, ни хэша refresh-токена
	assert.Equal(t, models.UserInfo{
		UID:      uid,
		Email:    "user@example.com",
		Username: "user",
	}, res.User)
}
