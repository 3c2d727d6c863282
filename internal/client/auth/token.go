package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry читает exp из session token без проверки подписи.
// Секрет есть только у сервера, здесь нужен лишь срок для status.
func tokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse session token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("session token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}
