// Package read реализует обработчик чтения карточки консультанта.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
	"github.com/kokoroai/counselor-backend/internal/services/counselor"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Get(ctx context.Context, counselorID string) (*models.Counselor, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.counselor.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	counselorID := chi.URLParam(r, "id")
	if counselorID == "" {
		log.Error("missing counselor id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing counselor id"))
		return
	}

	result, err := h.service.Get(r.Context(), counselorID)
	if err != nil {
		if errors.Is(err, counselor.ErrNotFound) {
			log.Info("counselor not found", slog.String("counselor_id", counselorID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("counselor not found"))
			return
		}
		log.Error("failed to read counselor", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read counselor"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
