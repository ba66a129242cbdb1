// Package notifyexpiry реализует ручной запуск рассылки об истекающих доступах.
package notifyexpiry

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service запускает внеплановый обход истекающих доступов.
type Service interface {
	TriggerExpiryScan(ctx context.Context) (int, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.notifyexpiry"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	published, err := h.service.TriggerExpiryScan(r.Context())
	if err != nil {
		log.Error("failed to trigger expiry scan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to trigger expiry scan"))
		return
	}

	log.Info("expiry scan triggered", slog.Int("published", published))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"published": published,
	}))
}
