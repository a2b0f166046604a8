// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и хэш активного refresh-токена.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
//
// HashedRt равен nil, пока у пользователя нет активной сессии:
// он заполняется при каждом успешном signup/signin/refresh и
// сбрасывается при logout.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	HashedRt     *string   // Хэш текущего refresh-токена, nil если сессии нет
	CreatedAt    time.Time // Дата регистрации
}

// UserInfo — урезанное представление пользователя для ответов API.
// Никогда не содержит хэш пароля и хэш refresh-токена.
type UserInfo struct {
	UID      string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Sanitize возвращает UserInfo без секретных полей.
func (u *User) Sanitize() UserInfo {
	return UserInfo{
		UID:      u.UID,
		Email:    u.Email,
		Username: u.Username,
	}
}
