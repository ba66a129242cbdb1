// Package state реализует обработчик чтения текущего состояния доступа.
package state

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/middlewarectx"
	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ResolveAccessState(ctx context.Context, userUID string) (*models.AccessState, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.state"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	accessState, err := h.service.ResolveAccessState(r.Context(), userUID)
	if err != nil {
		log.Error("failed to resolve access state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to resolve access state"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(accessState))
}
