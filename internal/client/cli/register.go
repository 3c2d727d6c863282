package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	email, err := c.io.ReadInput("Email (optional, needed for password reset): ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.getPassword("Password (min 6 chars): ", true)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Registering user...")

	session, err := c.authService.Register(ctx, username, password, email)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", session.UserID)
	c.io.Printf("Username: %s\n", session.Username)
	if session.Email == "" {
		c.io.Println()
		c.io.Println("⚠️  No email given: password reset will not be available for this account.")
	}
	c.io.Println()
	c.io.Println("You are now logged in.")

	return nil
}
