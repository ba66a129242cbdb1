// Package metrics реализует административную сводку показателей сервиса.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Metrics(ctx context.Context) (*models.Metrics, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.metrics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.Metrics(r.Context())
	if err != nil {
		log.Error("failed to collect metrics", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to collect metrics"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
