// Package remove реализует обработчик удаления диалога.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/middlewarectx"
	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/services/chat"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	RemoveConversation(ctx context.Context, conversationID, userUID string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.conversation.remove"

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

	conversationID := chi.URLParam(r, "id")
	if conversationID == "" {
		log.Error("missing conversation id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing conversation id"))
		return
	}

	if err := h.service.RemoveConversation(r.Context(), conversationID, userUID); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			log.Info("conversation not found", slog.String("conversation_id", conversationID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("conversation not found"))
			return
		}
		log.Error("failed to delete conversation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete conversation"))
		return
	}

	log.Info("conversation deleted", slog.String("conversation_id", conversationID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": true,
	}))
}
