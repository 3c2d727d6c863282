package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

func (s *Storage) CreateResetToken(ctx context.Context, token *models.ResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	).Scan(&token.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == tokenConstraint {
			return storage.ErrTokenExists
		}
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	return nil
}

func (s *Storage) GetValidResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.ResetToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1 AND used = FALSE AND expires_at > $2
	`

	token := &models.ResetToken{}
	err := s.db.QueryRowContext(ctx, query, tokenHash, now).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.Used,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return token, nil
}

// ConsumeResetToken relies on the row lock taken by the conditional UPDATE:
// a concurrent transaction re-evaluates "used = FALSE" after the winner
// commits and affects no rows.
func (s *Storage) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token_hash = $1 AND used = FALSE AND expires_at > $2
	`, tokenHash, now)
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
		`SELECT user_id FROM password_reset_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("failed to get reset token owner: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, now, userID,
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

func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < $1 OR used = TRUE`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
