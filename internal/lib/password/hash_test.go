package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompareHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "secret123"},
		{name: "password with symbols", password: "p@$$w0rd!#%"},
		{name: "unicode password", password: "пароль123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			assert.NoError(t, CompareHash(hash, tt.password))
			assert.Error(t, CompareHash(hash, tt.password+"x"))
		})
	}
}

func TestGetHash_ProducesDifferentHashes(t *testing.T) {
	first, err := GetHash("secret123")
	require.NoError(t, err)
	second, err := GetHash("secret123")
	require.NoError(t, err)

	// bcrypt солёный, одинаковые пароли дают разные хэши
	assert.NotEqual(t, first, second)
	assert.NoError(t, CompareHash(first, "secret123"))
	assert.NoError(t, CompareHash(second, "secret123"))
}

func TestTokenHash_LongInput(t *testing.T) {
	// JWT длиннее 72 байт, прямому bcrypt такой ввод недоступен
	token := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 20)

	hash, err := GetTokenHash(token)
	require.NoError(t, err)

	assert.NoError(t, CompareTokenHash(hash, token))
	assert.Error(t, CompareTokenHash(hash, token+"tail"))
	assert.Error(t, CompareTokenHash(hash, "another token"))
}

func TestCompareTokenHash_EmptyHash(t *testing.T) {
	assert.Error(t, CompareTokenHash("", "some token"))
}
