package storage

import (
	"context"

	"github.com/iudanet/authkeeper/internal/models"
)

// UserStorage defines interface for account persistence
type UserStorage interface {
	// CreateUser inserts a new account.
	// Returns ErrUsernameTaken or ErrEmailTaken on a uniqueness violation.
	CreateUser(ctx context.Context, user *models.Account) error

	// GetUserByUsername retrieves account by exact (case-sensitive) username
	// Returns ErrUserNotFound if account doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.Account, error)

	// GetUserByEmail retrieves account by email
	// Returns ErrUserNotFound if account doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetUserByID retrieves account by ID
	// Returns ErrUserNotFound if account doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.Account, error)

	// DeleteUser deletes account by ID together with its reset tokens
	// Returns ErrUserNotFound if account doesn't exist
	DeleteUser(ctx context.Context, userID string) error
}
