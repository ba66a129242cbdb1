// Package capture реализует обработчик подтверждения заказа PayPal
// и активации подписки.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kokoroai/counselor-backend/internal/http/middlewarectx"
	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
	"github.com/kokoroai/counselor-backend/internal/services/payment"
)

// Request — входные данные для подтверждения заказа.
type Request struct {
	OrderID string `json:"order_id" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	CaptureOrder(ctx context.Context, callerUID, orderID string) (*models.Subscription, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.capture"

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

	sub, err := h.service.CaptureOrder(r.Context(), userUID, req.OrderID)
	if err != nil {
		if errors.Is(err, payment.ErrOrderNotComplete) {
			log.Info("order is not completed", slog.String("order_id", req.OrderID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("order is not completed"))
			return
		}
		if errors.Is(err, payment.ErrForeignOrder) {
			log.Error("order belongs to another user", slog.String("order_id", req.OrderID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("order belongs to another user"))
			return
		}
		log.Error("failed to capture order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to capture order"))
		return
	}

	log.Info("subscription activated", slog.String("plan_id", sub.PlanID))
	render.JSON(w, r, response.StatusOKWithData(sub))
}
