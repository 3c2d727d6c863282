package models

import "time"

// Account представляет учетную запись пользователя
type Account struct {
	CreatedAt    time.Time `json:"created_at"`    // время создания
	UpdatedAt    time.Time `json:"updated_at"`    // обновляется при смене пароля
	ID           string    `json:"id"`            // UUID пользователя
	Username     string    `json:"username"`      // уникальный, регистрозависимый
	Email        string    `json:"email"`         // пустая строка = email не указан
	PasswordHash string    `json:"-"`             // bcrypt хеш, наружу не отдается
}

// HasEmail reports whether the account was registered with an email address.
func (a *Account) HasEmail() bool {
	return a.Email != ""
}

// Public returns the view of the account that may leave the server.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
	}
}

// PublicAccount is the account as seen by clients: never the password hash.
type PublicAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// ResetToken представляет одноразовый токен сброса пароля
type ResetToken struct {
	ExpiresAt time.Time `json:"expires_at"` // created_at + TTL
	CreatedAt time.Time `json:"created_at"` // время создания
	UserID    string    `json:"user_id"`    // владелец токена
	TokenHash string    `json:"-"`          // SHA-256 от токена, ключ поиска
	ID        int64     `json:"id"`         // автоинкремент
	Used      bool      `json:"used"`       // true после успешного сброса
}

// IsValid reports whether the token may still be consumed at the given moment.
func (t *ResetToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// IsSweepable reports whether the cleanup sweep may delete the token.
func (t *ResetToken) IsSweepable(now time.Time) bool {
	return t.Used || t.ExpiresAt.Before(now)
}
