// Package redeem реализует обработчик активации кода кампании.
package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kokoroai/counselor-backend/internal/http/middlewarectx"
	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/services/campaign"
)

// Request — входные данные для активации кода.
type Request struct {
	Code string `json:"code" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Redeem(ctx context.Context, userUID, rawCode string) (time.Time, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.redeem"

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

	expiresAt, err := h.service.Redeem(r.Context(), userUID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrCodeNotFound):
			log.Info("campaign code not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("campaign code not found"))
		case errors.Is(err, campaign.ErrCodeUnavailable):
			log.Info("campaign code unavailable")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("campaign code is not available"))
		case errors.Is(err, campaign.ErrAlreadyRedeemed):
			log.Info("campaign code already redeemed", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("campaign code already redeemed"))
		default:
			log.Error("failed to redeem campaign code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to redeem campaign code"))
		}
		return
	}

	log.Info("campaign code redeemed", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"trial_expires_at": expiresAt,
	}))
}
