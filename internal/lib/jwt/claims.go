// Package jwt реализует выпуск и парсинг пары JWT токенов (access + refresh)
// с пользовательскими claim полями.
//
// Maker определяет интерфейс для выпуска пары и проверки каждого токена
// своим секретом. MakerImpl — конкретная реализация с двумя независимыми
// секретами и сроками жизни.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSecrets возвращается конструктором, если секреты подписи не заданы.
var ErrNoSecrets = errors.New("jwt: signing secrets are not configured")

// Claims описывает пользовательские данные, хранящиеся в обоих токенах.
type Claims struct {
	UserUID              string `json:"id"`    // Идентификатор пользователя
	Email                string `json:"email"` // Почта пользователя
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Pair — пара выпущенных токенов.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Maker описывает интерфейс для выпуска и парсинга пары JWT токенов.
type Maker interface {
	// GeneratePair выпускает access и refresh токены с общими claims.
	GeneratePair(useruid, email string) (Pair, error)
	// ParseAccess проверяет access токен секретом access и возвращает claims.
	ParseAccess(tokenStr string) (*Claims, error)
	// ParseRefresh проверяет refresh токен секретом refresh и возвращает claims.
	ParseRefresh(tokenStr string) (*Claims, error)
}

// MakerImpl реализует интерфейс Maker с двумя секретными ключами
// и независимыми сроками жизни токенов.
type MakerImpl struct {
	accessSecret  string        // Секретный ключ для подписи access токена
	refreshSecret string        // Секретный ключ для подписи refresh токена
	accessTTL     time.Duration // Время жизни access токена
	refreshTTL    time.Duration // Время жизни refresh токена
}

// NewMaker создаёт новый экземпляр MakerImpl. Возвращает ErrNoSecrets,
// если хотя бы один из секретов пуст.
func NewMaker(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*MakerImpl, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrNoSecrets
	}
	return &MakerImpl{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// RefreshTTL возвращает срок жизни refresh токена,
// он же срок жизни refresh cookie.
func (j *MakerImpl) RefreshTTL() time.Duration {
	return j.refreshTTL
}
