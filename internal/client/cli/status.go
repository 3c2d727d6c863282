package cli

import (
	"context"
	"errors"
	"time"

	"github.com/iudanet/authkeeper/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	session, err := c.authService.Current(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'authctl login' to authenticate.")
			return nil
		}
		return err
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)
	remaining := time.Until(expiresAt)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", session.Username)
	c.io.Printf("Server: %s\n", session.ServerURL)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))

	if remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}

	return nil
}

func (c *Cli) runWhoAmI(ctx context.Context) error {
	user, err := c.authService.WhoAmI(ctx)
	if err != nil {
		return err
	}

	c.io.Println("✓ Token is valid")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Printf("Username: %s\n", user.Username)
	if user.Email != "" {
		c.io.Printf("Email: %s\n", user.Email)
	}

	return nil
}
