package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/pkg/api"
)

func registerUser(t *testing.T, s *testServer, username, email string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{Username: username, Password: "secret1", Email: email})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestResetHandler_ForgotPassword_Uniform(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "alice", "alice@example.com")

	known := s.do(t, http.MethodPost, "/api/auth/forgot-password", api.ForgotPasswordRequest{Email: "alice@example.com"})
	unknown := s.do(t, http.MethodPost, "/api/auth/forgot-password", api.ForgotPasswordRequest{Email: "nobody@example.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, auth.MsgResetRequested, decode[api.MessageResponse](t, known).Message)
	assert.Equal(t, 1, s.notifier.calls)
}

func TestResetHandler_ForgotPassword_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/forgot-password", api.ForgotPasswordRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is required", decode[api.ErrorResponse](t, w).Message)
}

func TestResetHandler_FullFlow(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "alice", "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/forgot-password", api.ForgotPasswordRequest{Email: "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	token := s.notifier.token()
	require.NotEmpty(t, token)

	// Токен действителен
	w = s.do(t, http.MethodGet, "/api/auth/verify-reset-token/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	verify := decode[api.VerifyResetTokenResponse](t, w)
	assert.True(t, verify.Valid)
	assert.Equal(t, auth.MsgResetTokenOK, verify.Message)

	// Слишком короткий пароль
	w = s.do(t, http.MethodPost, "/api/auth/reset-password", api.ResetPasswordRequest{Token: token, NewPassword: "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Сброс
	w = s.do(t, http.MethodPost, "/api/auth/reset-password", api.ResetPasswordRequest{Token: token, NewPassword: "newsecret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, auth.MsgResetDone, decode[api.MessageResponse](t, w).Message)

	// Повторное использование
	w = s.do(t, http.MethodPost, "/api/auth/reset-password", api.ResetPasswordRequest{Token: token, NewPassword: "another1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.MsgInvalidResetToken, decode[api.ErrorResponse](t, w).Message)

	// Токен больше не действителен, но ответ все равно 200
	w = s.do(t, http.MethodGet, "/api/auth/verify-reset-token/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[api.VerifyResetTokenResponse](t, w).Valid)

	// Вход с новым паролем
	w = s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "alice", Password: "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetHandler_VerifyResetToken_Unknown(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/auth/verify-reset-token/unknown-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[api.VerifyResetTokenResponse](t, w)
	assert.False(t, resp.Valid)
	assert.Equal(t, apperr.MsgInvalidResetToken, resp.Message)
}
