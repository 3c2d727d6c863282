// Package session issues and verifies the signed session credential (an
// HS256 JWT) returned by register and login.
//
// Verification is a pure function of the token, the current time and the
// signing secret. It does not consult the account store, so a credential
// stays valid until it expires even if the account is deleted or its
// password changes.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL - срок действия session credential
const DefaultTTL = 24 * time.Hour

const issuerName = "authkeeper"

var (
	// ErrEmptySecret is returned when the issuer is built without a signing secret.
	ErrEmptySecret = errors.New("session signing secret is empty")

	// ErrMissingToken is returned when verification is asked for an empty token.
	ErrMissingToken = errors.New("session token is missing")
)

// Claims - утверждения, которые несет session credential
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer подписывает и проверяет session credentials
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer создает Issuer. Пустой secret - ошибка конфигурации.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl}, nil
}

// TTL returns the validity window of issued credentials.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue создает новый подписанный токен для пользователя
func (i *Issuer) Issue(userID, username string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuerName,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify проверяет подпись и срок действия токена на момент now
func (i *Issuer) Verify(tokenString string, now time.Time) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
