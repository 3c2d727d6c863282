package storage

import (
	"context"
	"time"
)

//go:generate moq -out auth_mock.go . SessionStorage

// SessionStorage defines interface for storing the login session on client.
// Only one session is kept: a new login replaces the previous one.
type SessionStorage interface {
	// SaveSession stores the session, replacing any existing one
	SaveSession(ctx context.Context, session *Session) error

	// GetSession returns the stored session
	// Returns ErrSessionNotFound if nobody is logged in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes stored session (logout)
	// Returns ErrSessionNotFound if nobody is logged in
	DeleteSession(ctx context.Context) error
}

// Session - сохраненная сессия пользователя
type Session struct {
	Username  string `json:"username"`
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Token     string `json:"token"`      // JWT session credential
	ServerURL string `json:"server_url"` // сервер, выдавший токен
	ExpiresAt int64  `json:"expires_at"` // unix seconds, из claim exp
}

// Expired reports whether the session token is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(time.Unix(s.ExpiresAt, 0))
}
