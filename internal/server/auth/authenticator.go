// Package auth implements the two authentication components: the
// Authenticator (register, login, session credentials) and the
// ResetManager (single-use password reset tokens). They share only the
// account store and never call each other.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/metrics"
	"github.com/iudanet/authkeeper/internal/server/session"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/validation"
)

// dummyPassword is hashed once so that logins for unknown usernames spend
// the same bcrypt time as logins with a wrong password.
const dummyPassword = "authkeeper-timing-equalizer"

// Result is returned by Register and Login.
type Result struct {
	ExpiresAt time.Time
	Token     string
	User      models.PublicAccount
}

// Authenticator verifies credentials and issues session credentials.
type Authenticator struct {
	logger    *slog.Logger
	users     storage.UserStorage
	hasher    crypto.PasswordHasher
	issuer    *session.Issuer
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
	dummyHash string
}

// NewAuthenticator creates an Authenticator. m may be nil.
func NewAuthenticator(logger *slog.Logger, users storage.UserStorage, hasher crypto.PasswordHasher, issuer *session.Issuer, m *metrics.Metrics) (*Authenticator, error) {
	if users == nil {
		return nil, errors.New("user storage is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if issuer == nil {
		return nil, errors.New("session issuer is required")
	}

	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		logger:    logger,
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
		dummyHash: dummyHash,
	}, nil
}

// Register creates an account and returns a session for it.
// An empty email means the account has none.
func (a *Authenticator) Register(ctx context.Context, username, password, email string) (*Result, error) {
	if err := validation.ValidateUsername(username); err != nil {
		a.metrics.RecordAuth("register", metrics.OutcomeRejected)
		return nil, apperr.Validation(err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		a.metrics.RecordAuth("register", metrics.OutcomeRejected)
		return nil, apperr.Validation(err)
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			a.metrics.RecordAuth("register", metrics.OutcomeRejected)
			return nil, apperr.Validation(err)
		}
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.metrics.RecordAuth("register", metrics.OutcomeError)
		return nil, apperr.Internal("Hash", err)
	}

	now := a.now()
	account := &models.Account{
		ID:           a.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.users.CreateUser(ctx, account); err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			a.metrics.RecordAuth("register", metrics.OutcomeRejected)
			return nil, apperr.Conflict("Username already exists")
		case errors.Is(err, storage.ErrEmailTaken):
			a.metrics.RecordAuth("register", metrics.OutcomeRejected)
			return nil, apperr.Conflict("Email already exists")
		default:
			a.metrics.RecordAuth("register", metrics.OutcomeError)
			return nil, apperr.Internal("CreateUser", err)
		}
	}

	a.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", account.ID),
		slog.String("username", account.Username))

	result, err := a.IssueSession(account)
	if err != nil {
		a.metrics.RecordAuth("register", metrics.OutcomeError)
		return nil, err
	}

	a.metrics.RecordAuth("register", metrics.OutcomeSuccess)
	return result, nil
}

// Login checks the password of an existing account. Unknown usernames and
// wrong passwords produce the same error.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Result, error) {
	if username == "" || password == "" {
		a.metrics.RecordAuth("login", metrics.OutcomeRejected)
		return nil, apperr.Validation(errors.New("Username and password are required"))
	}
	// bcrypt сравнивает только первые 72 байта: длинный пароль никогда не совпадает
	if len(password) > validation.MaxPasswordBytes {
		_, _ = a.hasher.Verify(password[:validation.MaxPasswordBytes], a.dummyHash)
		a.logger.WarnContext(ctx, "login failed")
		a.metrics.RecordAuth("login", metrics.OutcomeRejected)
		return nil, apperr.InvalidCredentials()
	}

	account, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			a.metrics.RecordAuth("login", metrics.OutcomeError)
			return nil, apperr.Internal("GetUserByUsername", err)
		}
		_, _ = a.hasher.Verify(password, a.dummyHash)
		a.logger.WarnContext(ctx, "login failed")
		a.metrics.RecordAuth("login", metrics.OutcomeRejected)
		return nil, apperr.InvalidCredentials()
	}

	ok, err := a.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		a.metrics.RecordAuth("login", metrics.OutcomeError)
		return nil, apperr.Internal("Verify", err)
	}
	if !ok {
		a.logger.WarnContext(ctx, "login failed")
		a.metrics.RecordAuth("login", metrics.OutcomeRejected)
		return nil, apperr.InvalidCredentials()
	}

	result, err := a.IssueSession(account)
	if err != nil {
		a.metrics.RecordAuth("login", metrics.OutcomeError)
		return nil, err
	}

	a.logger.InfoContext(ctx, "user logged in", slog.String("user_id", account.ID))
	a.metrics.RecordAuth("login", metrics.OutcomeSuccess)
	return result, nil
}

// IssueSession signs a session credential for account.
func (a *Authenticator) IssueSession(account *models.Account) (*Result, error) {
	token, expiresAt, err := a.issuer.Issue(account.ID, account.Username, a.now())
	if err != nil {
		return nil, apperr.Internal("IssueSession", err)
	}

	return &Result{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      account.Public(),
	}, nil
}

// VerifySession checks a presented credential without touching the store.
func (a *Authenticator) VerifySession(token string) (*session.Claims, error) {
	if token == "" {
		return nil, apperr.SessionRequired()
	}

	claims, err := a.issuer.Verify(token, a.now())
	if err != nil {
		return nil, apperr.SessionInvalid(err)
	}

	return claims, nil
}
