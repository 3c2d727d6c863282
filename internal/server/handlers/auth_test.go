package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/internal/server/session"
	"github.com/iudanet/authkeeper/pkg/api"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		body           any
		name           string
		expectedError  string
		expectedStatus int
	}{
		{
			name:           "successful registration",
			body:           api.RegisterRequest{Username: "alice", Password: "secret1", Email: "alice@example.com"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "successful registration without email",
			body:           api.RegisterRequest{Username: "bob", Password: "secret1"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "short username",
			body:           api.RegisterRequest{Username: "al", Password: "secret1"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "username must be at least 3 characters long",
		},
		{
			name:           "short password",
			body:           api.RegisterRequest{Username: "carol", Password: "123"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "password must be at least 6 characters long",
		},
		{
			name:           "invalid json",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/api/auth/register", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.expectedStatus == http.StatusCreated {
				resp := decode[api.AuthResponse](t, w)
				req := tt.body.(api.RegisterRequest)
				assert.Equal(t, "Registration successful", resp.Message)
				assert.NotEmpty(t, resp.Token)
				assert.NotEmpty(t, resp.User.ID)
				assert.Equal(t, req.Username, resp.User.Username)
				assert.Equal(t, req.Email, resp.User.Email)
				assert.NotContains(t, w.Body.String(), "password")
				return
			}

			resp := decode[api.ErrorResponse](t, w)
			assert.Equal(t, tt.expectedError, resp.Message)
		})
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{Username: "alice", Password: "secret1", Email: "a@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{Username: "alice", Password: "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already exists", decode[api.ErrorResponse](t, w).Message)

	w = s.do(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{Username: "alicia", Password: "secret2", Email: "a@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already exists", decode[api.ErrorResponse](t, w).Message)
}

func TestAuthHandler_Login(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{Username: "alice", Password: "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	registered := decode[api.AuthResponse](t, w)

	t.Run("successful login returns same account", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "alice", Password: "secret1"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[api.AuthResponse](t, w)
		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, registered.User.ID, resp.User.ID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("failures are byte-identical", func(t *testing.T) {
		unknown := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "mallory", Password: "secret1"})
		wrong := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "alice", Password: "wrong-pass"})

		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_VerifyAndProtected(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), nil)
	claims := &session.Claims{UserID: "user123", Username: "alice"}

	tests := []struct {
		serve   func(http.ResponseWriter, *http.Request)
		name    string
		message string
	}{
		{name: "verify", serve: handler.Verify, message: "Token is valid"},
		{name: "protected", serve: handler.Protected, message: "This is protected data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithClaims(context.Background(), claims))
			w := httptest.NewRecorder()

			tt.serve(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[api.VerifyResponse](t, w)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, "user123", resp.User.ID)
			assert.Equal(t, "alice", resp.User.Username)
		})
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)

	huge := `{"username":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(huge))
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
