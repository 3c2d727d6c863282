package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду. args - аргументы после имени команды.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoAmI(ctx)
	case "forgot-password":
		return c.runForgotPassword(ctx, args)
	case "verify-reset":
		return c.runVerifyReset(ctx, args)
	case "reset-password":
		return c.runResetPassword(ctx, args)
	default:
		PrintUsage(c.io)
		return fmt.Errorf("unknown command: %s", command)
	}
}
