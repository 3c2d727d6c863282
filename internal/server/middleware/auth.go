package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/internal/server/handlers"
	"github.com/iudanet/authkeeper/internal/server/session"
)

// SessionVerifier проверяет session credential (реализуется auth.Authenticator)
type SessionVerifier interface {
	VerifySession(token string) (*session.Claims, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Нет токена - 401, токен недействителен или истек - 403.
func AuthMiddleware(logger *slog.Logger, verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r.Header.Get("Authorization"))

			claims, err := verifier.VerifySession(tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "Session rejected", slog.String("code", apperr.CodeOf(err)))
				handlers.WriteError(logger, w, r, err)
				return
			}

			logger.DebugContext(r.Context(), "User authenticated",
				slog.String("user_id", claims.UserID),
				slog.String("username", claims.Username))

			// Передаем запрос дальше с обновленным контекстом
			next.ServeHTTP(w, r.WithContext(handlers.WithClaims(r.Context(), claims)))
		})
	}
}

// bearerToken извлекает токен из "Bearer <token>".
// Другой формат заголовка равносилен отсутствию токена.
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
