package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ResetTokenBytes - количество случайных байт в токене сброса (256 бит)
const ResetTokenBytes = 32

// GenerateResetToken генерирует случайный токен сброса пароля.
// Возвращает сам токен (отдается пользователю) и его хеш (хранится в БД).
// Токен hex-encoded, поэтому безопасен в URL.
func GenerateResetToken() (token, hash string, err error) {
	tokenBytes := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random token: %w", err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashResetToken(token), nil
}

// HashResetToken computes the lookup key stored for a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
