package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
	tokenConstraint    = "password_reset_tokens_token_hash_key"
)

const selectUser = `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users
	`

func (s *Storage) CreateUser(ctx context.Context, user *models.Account) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		sql.NullString{String: user.Email, Valid: user.HasEmail()},
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case usernameConstraint:
				return storage.ErrUsernameTaken
			case emailConstraint:
				return storage.ErrEmailTaken
			}
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getUser(ctx, selectUser+`WHERE username = $1`, username)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getUser(ctx, selectUser+`WHERE email = $1`, email)
}

func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.Account, error) {
	return s.getUser(ctx, selectUser+`WHERE id = $1`, userID)
}

func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
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
	var email sql.NullString

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Email = email.String

	return user, nil
}
