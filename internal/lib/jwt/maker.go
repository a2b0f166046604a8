package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GeneratePair выпускает пару токенов с одинаковыми claims:
// access подписывается секретом access с коротким TTL,
// refresh — секретом refresh с длинным TTL.
func (j *MakerImpl) GeneratePair(useruid, email string) (Pair, error) {
	const op = "jwt.GeneratePair"
	access, err := j.sign(useruid, email, j.accessSecret, j.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := j.sign(useruid, email, j.refreshSecret, j.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("%s: %w", op, err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (j *MakerImpl) sign(useruid, email, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserUID: useruid,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccess парсит access токен, проверяет его подпись и срок действия,
// возвращает Claims с данными, если токен корректен.
func (j *MakerImpl) ParseAccess(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseAccess"
	return j.parse(op, tokenStr, j.accessSecret)
}

// ParseRefresh парсит refresh токен своим секретом.
func (j *MakerImpl) ParseRefresh(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseRefresh"
	return j.parse(op, tokenStr, j.refreshSecret)
}

func (j *MakerImpl) parse(op, tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
