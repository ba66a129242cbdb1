// Package newslettersend реализует административную рассылку писем подписчикам.
package newslettersend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
)

// Request — входные данные для рассылки.
type Request struct {
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	SendCampaign(ctx context.Context, subject, html string) (int, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.newslettersend"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sent, err := h.service.SendCampaign(r.Context(), req.Subject, req.HTML)
	if err != nil {
		log.Error("failed to send newsletter", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to send newsletter"))
		return
	}

	log.Info("newsletter sent", slog.Int("recipients", sent))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sent": sent,
	}))
}
