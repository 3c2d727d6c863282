package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// CreateResetToken stores a new password reset token
func (s *Storage) CreateResetToken(ctx context.Context, token *models.ResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		token.UserID,
		token.TokenHash,
		toMillis(token.ExpiresAt),
		token.Used,
		toMillis(token.CreatedAt),
	)
	if err != nil {
		if uniqueErr := uniqueViolation(err); uniqueErr != nil {
			return uniqueErr
		}
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get reset token id: %w", err)
	}
	token.ID = id

	return nil
}

// GetValidResetToken retrieves a token that is unused and not expired at now
func (s *Storage) GetValidResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.ResetToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token_hash = ? AND used = 0 AND expires_at > ?
	`

	token := &models.ResetToken{}
	var expiresAt, createdAt int64

	err := s.db.QueryRowContext(ctx, query, tokenHash, toMillis(now)).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&expiresAt,
		&token.Used,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	token.ExpiresAt = fromMillis(expiresAt)
	token.CreatedAt = fromMillis(createdAt)

	return token, nil
}

// ConsumeResetToken marks the token used and replaces the owner's password in one transaction
func (s *Storage) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Условный UPDATE: из конкурирующих вызовов строку изменит только один
	result, err := tx.ExecContext(ctx, `
		UPDATE password_reset_tokens
		SET used = 1
		WHERE token_hash = ? AND used = 0 AND expires_at > ?
	`, tokenHash, toMillis(now))
	if err != nil {
		return "", fmt.Errorf("failed to mark reset token used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return "", storage.ErrTokenNotFound
	}

	var userID string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM password_reset_tokens WHERE token_hash = ?`, tokenHash,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("failed to get reset token owner: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, toMillis(now), userID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	rows, err = result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return "", storage.ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit password reset: %w", err)
	}

	return userID, nil
}

// DeleteExpiredResetTokens removes expired and used tokens
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < ? OR used = 1`

	result, err := s.db.ExecContext(ctx, query, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
