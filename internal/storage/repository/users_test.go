package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/invoice-manager/internal/models"
)

func TestStorage_CreateUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	verify := NewTestVerification(storage)

	uid, err := storage.CreateUser(context.Background(), models.User{
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: "hashedpassword",
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)
	verify.VerifyUserExists(t, uid)

	// повторная регистрация с тем же email нарушает уникальность
	_, err = storage.CreateUser(context.Background(), models.User{
		Email:        "test@example.com",
		Username:     "otheruser",
		PasswordHash: "hashedpassword",
	})
	assert.Error(t, err)
}

func TestStorage_GetUserByEmail(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUser(t, "testuser", "test@example.com", "hashedpassword")

	tests := []struct {
		name      string
		email     string
		wantErr   bool
		wantNoRow bool
	}{
		{
			name:  "существующий пользователь",
			email: "test@example.com",
		},
		{
			name:      "unknown email",
			email:     "missing@example.com",
			wantErr:   true,
			wantNoRow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := storage.GetUserByEmail(context.Background(), tt.email)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantNoRow {
					assert.True(t, errors.Is(err, sql.ErrNoRows))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uid, user.UID)
			assert.Equal(t, "testuser", user.Username)
			assert.Equal(t, "hashedpassword", user.PasswordHash)
			assert.Nil(t, user.HashedRt)
		})
	}
}

func TestStorage_GetUserByUsername(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUser(t, "testuser", "test@example.com", "hashedpassword")

	user, err := storage.GetUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, uid, user.UID)
	// хэш пароля не выбирается
	assert.Empty(t, user.PasswordHash)

	_, err = storage.GetUserByUsername(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStorage_RefreshHashLifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	uid := factory.CreateUser(t, "testuser", "test@example.com", "hashedpassword")

	// у нового пользователя хэш refresh токена не установлен
	user, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, user.HashedRt)

	// выпуск токенов сохраняет хэш
	err = storage.UpdateRefreshHash(context.Background(), uid, "first-hash")
	require.NoError(t, err)
	hash := verify.VerifyRefreshHash(t, uid)
	require.NotNil(t, hash)
	assert.Equal(t, "first-hash", *hash)

	// повторный выпуск перезаписывает хэш
	err = storage.UpdateRefreshHash(context.Background(), uid, "second-hash")
	require.NoError(t, err)
	hash = verify.VerifyRefreshHash(t, uid)
	require.NotNil(t, hash)
	assert.Equal(t, "second-hash", *hash)

	// logout сбрасывает хэш
	err = storage.ClearRefreshHash(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, verify.VerifyRefreshHash(t, uid))

	// повторный logout проходит без ошибки
	err = storage.ClearRefreshHash(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, verify.VerifyRefreshHash(t, uid))

	user, err = storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, user.HashedRt)
}

func TestStorage_UserContextCancelled(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.GetUser(ctx, NewTestUID())
	assert.True(t, errors.Is(err, context.Canceled))
}
