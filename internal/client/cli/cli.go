package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/authkeeper/internal/client/auth"
	"github.com/iudanet/authkeeper/internal/client/iocli"
)

// PasswordEnv - переменная окружения с паролем для скриптов
const PasswordEnv = "AUTHKEEPER_PASSWORD"

// Passwords - неинтерактивные источники пароля
type Passwords struct {
	FromFile string
}

type Cli struct {
	io          iocli.IO
	authService *auth.Service
	passwords   Passwords
}

func New(io iocli.IO, authService *auth.Service, passwords Passwords) *Cli {
	return &Cli{
		io:          io,
		authService: authService,
		passwords:   passwords,
	}
}

// getPassword reads a password with priority:
// 1. Environment variable AUTHKEEPER_PASSWORD
// 2. File given with --password-file
// 3. Interactive prompt (fallback), confirmed twice when confirm is set
func (c *Cli) getPassword(prompt string, confirm bool) (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline
		password := strings.TrimRight(string(content), "\r\n")
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: Interactive prompt
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	if confirm {
		again, err := c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return "", fmt.Errorf("failed to read confirmation: %w", err)
		}
		if again != password {
			return "", fmt.Errorf("passwords do not match")
		}
	}

	return password, nil
}

// argOrPrompt берет значение из аргументов или спрашивает его
func (c *Cli) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return c.io.ReadInput(prompt)
}

func PrintUsage(io iocli.IO) {
	io.Println("AuthKeeper Client")
	io.Println()
	io.Println("Usage:")
	io.Println("  authctl [OPTIONS] COMMAND [ARGS]")
	io.Println()
	io.Println("Options:")
	io.Println("  --version              Show version information")
	io.Println("  --server URL           Server URL (default: http://localhost:3000)")
	io.Println("  --db PATH              Path to local session database (default: authctl.db)")
	io.Println("  --password-file PATH   Path to file containing the password")
	io.Println()
	io.Println("Password Priority (highest to lowest):")
	io.Println("  1. AUTHKEEPER_PASSWORD environment variable")
	io.Println("  2. --password-file (file path)")
	io.Println("  3. Interactive prompt (fallback)")
	io.Println()
	io.Println("Commands:")
	io.Println("  register                   Register new account and log in")
	io.Println("  login                      Login to server")
	io.Println("  logout                     Forget the local session")
	io.Println("  status                     Show local session status")
	io.Println("  whoami                     Verify the session with the server")
	io.Println("  forgot-password [EMAIL]    Request a password reset link")
	io.Println("  verify-reset [TOKEN]       Check a password reset token")
	io.Println("  reset-password [TOKEN]     Set a new password using a reset token")
	io.Println()
	io.Println("Examples:")
	io.Println("  authctl register")
	io.Println("  authctl --server https://auth.example.com login")
	io.Println("  authctl forgot-password alice@example.com")
	io.Println("  AUTHKEEPER_PASSWORD='newSecret' authctl reset-password 3f9a...")
}
