package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinUsernameLen минимальная длина username (в символах, не байтах)
	MinUsernameLen = 3
	// MinPasswordLen минимальная длина пароля (в символах)
	MinPasswordLen = 6
	// MaxPasswordBytes предел входа bcrypt
	MaxPasswordBytes = 72
)

// ValidateUsername проверяет, что username соответствует требованиям.
// Длина считается в символах Unicode. Регистр сохраняется как есть.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if utf8.RuneCountInString(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if !utf8.ValidString(username) {
		return fmt.Errorf("username must be valid UTF-8")
	}

	// Управляющие символы и пробелы по краям делают username неотличимыми визуально
	if strings.TrimSpace(username) != username {
		return fmt.Errorf("username must not start or end with whitespace")
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return fmt.Errorf("username must not contain control characters")
		}
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}

	return nil
}

// ValidateEmail checks that email is a bare address such as "a@example.com".
// Display-name forms ("Alice <a@example.com>") are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email must be a valid address")
	}

	return nil
}
