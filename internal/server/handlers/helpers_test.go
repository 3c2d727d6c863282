package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/session"
	"github.com/iudanet/authkeeper/internal/server/storage/memory"
)

// setupTestLogger создает logger для тестов
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureNotifier запоминает последний выданный токен
type captureNotifier struct {
	last  string
	calls int
	mu    sync.Mutex
}

func (n *captureNotifier) SendResetLink(_ context.Context, _ *models.Account, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = token
	n.calls++
	return nil
}

func (n *captureNotifier) token() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

type testServer struct {
	mux      *http.ServeMux
	store    *memory.Storage
	notifier *captureNotifier
	authn    *auth.Authenticator
}

// newTestServer собирает handlers на общем in-memory хранилище
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := setupTestLogger()
	store := memory.New()
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)

	issuer, err := session.NewIssuer([]byte("handler-test-secret"), time.Hour)
	require.NoError(t, err)
	authn, err := auth.NewAuthenticator(logger, store, hasher, issuer, nil)
	require.NoError(t, err)

	notifier := &captureNotifier{}
	resets, err := auth.NewResetManager(logger, store, store, hasher, notifier, time.Hour, nil)
	require.NoError(t, err)

	authHandler := NewAuthHandler(logger, authn)
	resetHandler := NewResetHandler(logger, resets)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/forgot-password", resetHandler.ForgotPassword)
	mux.HandleFunc("GET /api/auth/verify-reset-token/{token}", resetHandler.VerifyResetToken)
	mux.HandleFunc("POST /api/auth/reset-password", resetHandler.ResetPassword)

	return &testServer{mux: mux, store: store, notifier: notifier, authn: authn}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
