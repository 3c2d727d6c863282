package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/pkg/api"
)

// pingTimeout - сколько ждать ответа хранилища
const pingTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	store Pinger
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, store Pinger) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		store:     store,
	}
}

// Health обрабатывает GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "storage ping failed", slog.Any("error", err))
		h.sendJSON(w, api.HealthResponse{
			Status:  "unavailable",
			Message: "Storage is unavailable",
		}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, api.HealthResponse{
		Status:  "ok",
		Message: "API is running",
	}, http.StatusOK)
}
