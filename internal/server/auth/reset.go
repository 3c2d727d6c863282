package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/metrics"
	"github.com/iudanet/authkeeper/internal/server/notify"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/validation"
)

// DefaultResetTTL - время жизни токена сброса пароля
const DefaultResetTTL = time.Hour

// Response messages of the reset flow.
const (
	MsgResetRequested = "If an account exists with this email, a password reset link has been sent"
	MsgResetDone      = "Password has been reset successfully. You can now login with your new password."
	MsgResetTokenOK   = "Token is valid"
)

// ResetManager issues, validates, consumes and sweeps password reset tokens.
type ResetManager struct {
	logger   *slog.Logger
	users    storage.UserStorage
	tokens   storage.ResetTokenStorage
	hasher   crypto.PasswordHasher
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	ttl      time.Duration
}

// NewResetManager creates a ResetManager. ttl <= 0 means DefaultResetTTL; m may be nil.
func NewResetManager(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens storage.ResetTokenStorage,
	hasher crypto.PasswordHasher,
	notifier notify.Notifier,
	ttl time.Duration,
	m *metrics.Metrics,
) (*ResetManager, error) {
	if users == nil {
		return nil, errors.New("user storage is required")
	}
	if tokens == nil {
		return nil, errors.New("reset token storage is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}

	return &ResetManager{
		logger:   logger,
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
		ttl:      ttl,
	}, nil
}

// RequestReset issues a token for the account with this email, if any.
// The result for an unknown email is indistinguishable from a known one.
func (r *ResetManager) RequestReset(ctx context.Context, email string) error {
	if email == "" {
		r.metrics.RecordReset("request", metrics.OutcomeRejected)
		return apperr.Validation(errors.New("Email is required"))
	}
	if err := validation.ValidateEmail(email); err != nil {
		r.metrics.RecordReset("request", metrics.OutcomeRejected)
		return apperr.Validation(err)
	}

	account, err := r.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			r.logger.InfoContext(ctx, "password reset requested for unknown email")
			r.metrics.RecordReset("request", metrics.OutcomeSuccess)
			return nil
		}
		r.metrics.RecordReset("request", metrics.OutcomeError)
		return apperr.Internal("GetUserByEmail", err)
	}

	token, hash, err := crypto.GenerateResetToken()
	if err != nil {
		r.metrics.RecordReset("request", metrics.OutcomeError)
		return apperr.Internal("GenerateResetToken", err)
	}

	now := r.now()
	reset := &models.ResetToken{
		UserID:    account.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(r.ttl),
		CreatedAt: now,
	}
	if err := r.tokens.CreateResetToken(ctx, reset); err != nil {
		r.metrics.RecordReset("request", metrics.OutcomeError)
		return apperr.Internal("CreateResetToken", err)
	}

	// Ошибка доставки не должна отличать известный email от неизвестного
	if err := r.notifier.SendResetLink(ctx, account, token); err != nil {
		r.logger.ErrorContext(ctx, "failed to send reset link",
			slog.String("user_id", account.ID),
			slog.Any("error", err))
	}

	r.logger.InfoContext(ctx, "password reset token issued",
		slog.String("user_id", account.ID),
		slog.Int64("token_id", reset.ID))
	r.metrics.RecordReset("request", metrics.OutcomeSuccess)
	return nil
}

// VerifyToken reports whether token can still be consumed. Unknown, expired
// and used tokens all report false. Only store failures return an error.
func (r *ResetManager) VerifyToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		r.metrics.RecordReset("verify", metrics.OutcomeRejected)
		return false, nil
	}

	_, err := r.tokens.GetValidResetToken(ctx, crypto.HashResetToken(token), r.now())
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			r.metrics.RecordReset("verify", metrics.OutcomeRejected)
			return false, nil
		}
		r.metrics.RecordReset("verify", metrics.OutcomeError)
		return false, apperr.Internal("GetValidResetToken", err)
	}

	r.metrics.RecordReset("verify", metrics.OutcomeSuccess)
	return true, nil
}

// ConsumeAndReset replaces the password of the token owner and burns the
// token. Of several concurrent calls with one token exactly one succeeds.
func (r *ResetManager) ConsumeAndReset(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		r.metrics.RecordReset("consume", metrics.OutcomeRejected)
		return apperr.Validation(err)
	}
	if token == "" {
		r.metrics.RecordReset("consume", metrics.OutcomeRejected)
		return apperr.InvalidResetToken()
	}

	tokenHash := crypto.HashResetToken(token)

	// Ранняя проверка избавляет от bcrypt для заведомо негодных токенов;
	// решающая проверка - условный UPDATE внутри ConsumeResetToken.
	if _, err := r.tokens.GetValidResetToken(ctx, tokenHash, r.now()); err != nil {
		return r.consumeFailed(ctx, "GetValidResetToken", err)
	}

	passwordHash, err := r.hasher.Hash(newPassword)
	if err != nil {
		r.metrics.RecordReset("consume", metrics.OutcomeError)
		return apperr.Internal("Hash", err)
	}

	userID, err := r.tokens.ConsumeResetToken(ctx, tokenHash, passwordHash, r.now())
	if err != nil {
		return r.consumeFailed(ctx, "ConsumeResetToken", err)
	}

	r.logger.InfoContext(ctx, "password reset completed", slog.String("user_id", userID))
	r.metrics.RecordReset("consume", metrics.OutcomeSuccess)
	return nil
}

func (r *ResetManager) consumeFailed(ctx context.Context, operation string, err error) error {
	if errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrUserNotFound) {
		r.logger.WarnContext(ctx, "password reset rejected", slog.String("operation", operation))
		r.metrics.RecordReset("consume", metrics.OutcomeRejected)
		return apperr.InvalidResetToken()
	}
	r.metrics.RecordReset("consume", metrics.OutcomeError)
	return apperr.Internal(operation, err)
}

// CleanupExpired deletes expired and used tokens and returns how many went.
func (r *ResetManager) CleanupExpired(ctx context.Context) (int, error) {
	deleted, err := r.tokens.DeleteExpiredResetTokens(ctx, r.now())
	if err != nil {
		return 0, apperr.Internal("DeleteExpiredResetTokens", err)
	}

	if deleted > 0 {
		r.logger.InfoContext(ctx, "expired reset tokens removed", slog.Int("count", deleted))
	}
	r.metrics.AddSwept(deleted)
	return deleted, nil
}
