// Package notify delivers password reset links to account owners.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/iudanet/authkeeper/internal/models"
)

// DefaultResetURL - страница фронтенда, принимающая ?token=
const DefaultResetURL = "http://localhost:4200/reset-password"

// Notifier sends the reset link for a freshly issued token.
// It is the only component that ever sees the plaintext token besides the user.
type Notifier interface {
	SendResetLink(ctx context.Context, account *models.Account, token string) error
}

// ResetLink builds "<base>?token=<token>", keeping any query already in base.
func ResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid reset url: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// LogNotifier "delivers" the link by writing it to a dedicated outbox logger.
// Suitable for development and for deployments that ship that log to a mailer.
type LogNotifier struct {
	outbox  *slog.Logger
	baseURL string
}

// NewLogNotifier creates a notifier writing to outbox.
func NewLogNotifier(outbox *slog.Logger, baseURL string) (*LogNotifier, error) {
	if baseURL == "" {
		baseURL = DefaultResetURL
	}
	if _, err := ResetLink(baseURL, "probe"); err != nil {
		return nil, err
	}
	return &LogNotifier{outbox: outbox, baseURL: baseURL}, nil
}

// SendResetLink writes the link for account.
func (n *LogNotifier) SendResetLink(ctx context.Context, account *models.Account, token string) error {
	link, err := ResetLink(n.baseURL, token)
	if err != nil {
		return err
	}

	n.outbox.InfoContext(ctx, "password reset link",
		slog.String("to", account.Email),
		slog.String("username", account.Username),
		slog.String("link", link))

	return nil
}
