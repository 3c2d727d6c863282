package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runForgotPassword(ctx context.Context, args []string) error {
	email, err := c.argOrPrompt(args, "Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	message, err := c.authService.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}

	c.io.Println(message)
	return nil
}

func (c *Cli) runVerifyReset(ctx context.Context, args []string) error {
	token, err := c.argOrPrompt(args, "Reset token: ")
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	valid, err := c.authService.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	if !valid {
		return fmt.Errorf("reset token is invalid or expired")
	}

	c.io.Println("✓ Reset token is valid")
	return nil
}

func (c *Cli) runResetPassword(ctx context.Context, args []string) error {
	c.io.Println("=== Password Reset ===")
	c.io.Println()

	token, err := c.argOrPrompt(args, "Reset token: ")
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	password, err := c.getPassword("New password (min 6 chars): ", true)
	if err != nil {
		return err
	}

	message, err := c.authService.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("✓ %s\n", message)
	return nil
}
