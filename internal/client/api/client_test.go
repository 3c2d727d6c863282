package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/pkg/api"
)

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:3000/")

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:3000", client.BaseURL())
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

// TestClient_Register проверяет успешную регистрацию
func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "testuser", req.Username)
		assert.Equal(t, "secret1", req.Password)
		assert.Equal(t, "test@example.com", req.Email)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.AuthResponse{
			Message: "Registration successful",
			Token:   "jwt-token",
			User:    api.PublicUser{ID: "user-123", Username: "testuser", Email: "test@example.com"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Register(context.Background(), api.RegisterRequest{
		Username: "testuser",
		Password: "secret1",
		Email:    "test@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, "user-123", resp.User.ID)
}

// TestClient_Errors проверяет разбор ответов с ошибкой
func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		status      int
	}{
		{
			name:        "conflict with message",
			status:      http.StatusConflict,
			body:        `{"error":"Conflict","message":"Username already exists"}`,
			wantMessage: "Username already exists",
		},
		{
			name:        "error field only",
			status:      http.StatusUnauthorized,
			body:        `{"error":"Unauthorized"}`,
			wantMessage: "Unauthorized",
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "upstream down\n",
			wantMessage: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Login(context.Background(), api.LoginRequest{Username: "u", Password: "p"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

// TestClient_Verify проверяет передачу Bearer токена
func TestClient_Verify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/verify", r.URL.Path)
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(api.VerifyResponse{
			Message: "Token is valid",
			User:    api.PublicUser{ID: "user-123", Username: "testuser"},
		})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Verify(context.Background(), "jwt-token")
	require.NoError(t, err)
	assert.Equal(t, "testuser", resp.User.Username)
}

// TestClient_ResetFlow проверяет маршруты сброса пароля
func TestClient_ResetFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/forgot-password":
			var req api.ForgotPasswordRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a@example.com", req.Email)
			_ = json.NewEncoder(w).Encode(api.MessageResponse{Message: "sent"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/auth/verify-reset-token/abc123":
			_ = json.NewEncoder(w).Encode(api.VerifyResetTokenResponse{Message: "Token is valid", Valid: true})
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password":
			var req api.ResetPasswordRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "abc123", req.Token)
			assert.Equal(t, "newsecret", req.NewPassword)
			_ = json.NewEncoder(w).Encode(api.MessageResponse{Message: "done"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	msg, err := client.ForgotPassword(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sent", msg.Message)

	verify, err := client.VerifyResetToken(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, verify.Valid)

	msg, err = client.ResetPassword(ctx, api.ResetPasswordRequest{Token: "abc123", NewPassword: "newsecret"})
	require.NoError(t, err)
	assert.Equal(t, "done", msg.Message)
}

// TestClient_VerifyResetToken_EscapesPath проверяет экранирование токена в пути
func TestClient_VerifyResetToken_EscapesPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/verify-reset-token/a%2Fb", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(api.VerifyResetTokenResponse{Valid: false})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).VerifyResetToken(context.Background(), "a/b")
	require.NoError(t, err)
	assert.False(t, resp.Valid)
}

// TestClient_Health проверяет health check и недоступный сервер
func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok", Message: "API is running"})
	}))

	resp, err := NewClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	url := server.URL
	server.Close()

	_, err = NewClient(url).Health(context.Background())
	assert.Error(t, err)
}

// TestClient_ContextCancelled проверяет отмену запроса
func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).Health(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestClient_InvalidJSONResponse проверяет ошибку декодирования
func TestClient_InvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}
