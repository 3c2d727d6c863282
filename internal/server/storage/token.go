package storage

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
)

// ResetTokenStorage defines interface for password reset token persistence
type ResetTokenStorage interface {
	// CreateResetToken stores a new token and sets token.ID.
	CreateResetToken(ctx context.Context, token *models.ResetToken) error

	// GetValidResetToken retrieves the token with the given hash only if
	// used = false AND expires_at > now.
	// Returns ErrTokenNotFound otherwise, without saying why.
	GetValidResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.ResetToken, error)

	// ConsumeResetToken atomically marks the token used (only if it is still
	// valid at now) and sets the owner's password hash and updated_at.
	// Both changes commit together or not at all. Of several concurrent calls
	// for the same token at most one succeeds; the others get ErrTokenNotFound.
	// Returns the owner's ID.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)

	// DeleteExpiredResetTokens removes every token with expires_at < now or
	// used = true. Never touches a token that is still valid at now.
	// Returns number of deleted tokens
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error)
}

// Storage is everything the authentication services need from a backend.
type Storage interface {
	UserStorage
	ResetTokenStorage

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
