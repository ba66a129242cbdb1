// Package list реализует обработчик списка консультантов.
package list

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
	List(ctx context.Context) ([]*models.Counselor, error)
	Search(ctx context.Context, query string) ([]*models.Counselor, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.counselor.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var (
		counselors []*models.Counselor
		err        error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		counselors, err = h.service.Search(r.Context(), query)
	} else {
		counselors, err = h.service.List(r.Context())
	}
	if err != nil {
		log.Error("failed to list counselors", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list counselors"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"counselors": counselors,
		"count":      len(counselors),
	}))
}
