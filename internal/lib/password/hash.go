// Package password реализует функции для безопасного хеширования и проверки
// паролей и refresh-токенов.
//
// GetHash и CompareHash работают с паролями напрямую через bcrypt.
// GetTokenHash и CompareTokenHash предварительно сжимают токен через sha256:
// bcrypt не принимает ввод длиннее 72 байт, а JWT всегда длиннее.
// Проверка в обоих случаях идёт только через bcrypt.CompareHashAndPassword,
// без сравнения строк.
package password

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
//
// Используется для безопасного хранения паролей в базе данных.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetTokenHash возвращает bcrypt‑хэш refresh-токена для хранения в базе.
func GetTokenHash(token string) (string, error) {
	const op = "password.GetTokenHash"
	hashed, err := bcrypt.GenerateFromPassword(tokenDigest(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareTokenHash проверяет refresh-токен по сохранённому хэшу.
func CompareTokenHash(originalHash, token string) error {
	const op = "password.CompareTokenHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), tokenDigest(token)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func tokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}
