package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

const selectUser = `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users
	`

// CreateUser creates a new account in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.Account) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		nullString(user.Email),
		user.PasswordHash,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)

	if err != nil {
		if uniqueErr := uniqueViolation(err); uniqueErr != nil {
			return uniqueErr
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves account by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getUser(ctx, selectUser+`WHERE username = ?`, username)
}

// GetUserByEmail retrieves account by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getUser(ctx, selectUser+`WHERE email = ?`, email)
}

// GetUserByID retrieves account by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.Account, error) {
	return s.getUser(ctx, selectUser+`WHERE id = ?`, userID)
}

// DeleteUser deletes account by ID (reset tokens are removed by ON DELETE CASCADE)
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (s *Storage) getUser(ctx context.Context, query string, arg any) (*models.Account, error) {
	user := &models.Account{}
	var (
		email                sql.NullString
		createdAt, updatedAt int64
	)

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Email = email.String
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)

	return user, nil
}

// uniqueViolation переводит UNIQUE constraint SQLite в доменную ошибку
func uniqueViolation(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return nil
	}

	// Текст: "UNIQUE constraint failed: users.username"
	switch {
	case strings.Contains(err.Error(), "users.email"):
		return storage.ErrEmailTaken
	case strings.Contains(err.Error(), "users.username"):
		return storage.ErrUsernameTaken
	case strings.Contains(err.Error(), "password_reset_tokens.token_hash"):
		return storage.ErrTokenExists
	default:
		return nil
	}
}

// nullString хранит пустой email как NULL, чтобы UNIQUE не срабатывал на ""
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
