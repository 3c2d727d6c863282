package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/pkg/api"
)

// ResetHandler обрабатывает запросы сброса пароля
type ResetHandler struct {
	responder
	resets *auth.ResetManager
}

// NewResetHandler создает новый handler для сброса пароля
func NewResetHandler(logger *slog.Logger, resets *auth.ResetManager) *ResetHandler {
	return &ResetHandler{
		responder: responder{logger: logger},
		resets:    resets,
	}
}

// ForgotPassword обрабатывает POST /api/auth/forgot-password
// Ответ одинаков для известных и неизвестных email
func (h *ResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ForgotPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: auth.MsgResetRequested}, http.StatusOK)
}

// VerifyResetToken обрабатывает GET /api/auth/verify-reset-token/{token}
// Всегда отвечает 200, кроме сбоя хранилища
func (h *ResetHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.resets.VerifyToken(r.Context(), r.PathValue("token"))
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	resp := api.VerifyResetTokenResponse{Valid: valid, Message: auth.MsgResetTokenOK}
	if !valid {
		resp.Message = apperr.MsgInvalidResetToken
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// ResetPassword обрабатывает POST /api/auth/reset-password
func (h *ResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.resets.ConsumeAndReset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: auth.MsgResetDone}, http.StatusOK)
}
