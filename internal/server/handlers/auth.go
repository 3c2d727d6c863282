package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/pkg/api"
)

// AuthHandler обрабатывает запросы регистрации, входа и проверки сессии
type AuthHandler struct {
	responder
	authn *auth.Authenticator
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, authn *auth.Authenticator) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		authn:     authn,
	}
}

// Register обрабатывает POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authn.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, authResponse("Registration successful", result), http.StatusCreated)
}

// Login обрабатывает POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authn.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, authResponse("Login successful", result), http.StatusOK)
}

// Verify обрабатывает GET /api/auth/verify (за AuthMiddleware)
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, api.VerifyResponse{
		Message: "Token is valid",
		User:    userFromContext(r),
	}, http.StatusOK)
}

// Protected обрабатывает GET /api/protected (за AuthMiddleware)
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, api.VerifyResponse{
		Message: "This is protected data",
		User:    userFromContext(r),
	}, http.StatusOK)
}

func userFromContext(r *http.Request) api.PublicUser {
	userID, _ := GetUserID(r.Context())
	username, _ := GetUsername(r.Context())
	return api.PublicUser{ID: userID, Username: username}
}

func authResponse(message string, result *auth.Result) api.AuthResponse {
	return api.AuthResponse{
		Message: message,
		Token:   result.Token,
		User: api.PublicUser{
			ID:       result.User.ID,
			Username: result.User.Username,
			Email:    result.User.Email,
		},
	}
}
