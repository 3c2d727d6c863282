package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/pkg/api"
)

// maxBodyBytes - предел размера тела запроса
const maxBodyBytes = 1 << 20

// responder содержит общие для handlers методы ответа
type responder struct {
	logger *slog.Logger
}

// decodeJSON читает тело запроса в dst
func (h responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	WriteJSON(h.logger, w, data, statusCode)
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// sendAppError отправляет ошибку сервиса
func (h responder) sendAppError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(h.logger, w, r, err)
}

// WriteJSON отправляет JSON ответ
func WriteJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// WriteError переводит ошибку сервиса в HTTP ответ.
// Детали внутренних ошибок остаются в логе.
func WriteError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
	}

	WriteJSON(logger, w, api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: apperr.PublicMessage(err),
	}, status)
}
