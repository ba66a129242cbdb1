// Package send реализует обработчик отправки сообщения консультанту.
package send

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
	"github.com/kokoroai/counselor-backend/internal/services/access"
	"github.com/kokoroai/counselor-backend/internal/services/chat"
	"github.com/kokoroai/counselor-backend/internal/services/counselor"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	SendMessage(ctx context.Context, userUID string, req models.ChatRequest) (*models.ChatReply, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.send"

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

	var req models.ChatRequest
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

	reply, err := h.service.SendMessage(r.Context(), userUID, req)
	if err != nil {
		var accessErr *access.AccessError
		switch {
		case errors.As(err, &accessErr):
			status, detail := access.ParseAccessError(err)
			log.Info("access denied", slog.Int("status", status))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(detail))
		case errors.Is(err, counselor.ErrNotFound):
			log.Info("counselor not found", slog.String("counselor_id", req.CounselorID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("counselor not found"))
		case errors.Is(err, chat.ErrConversationNotFound):
			log.Info("conversation not found", slog.String("conversation_id", req.ConversationID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("conversation not found"))
		default:
			log.Error("failed to send message", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to send message"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(reply))
}
