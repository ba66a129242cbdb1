// Package webhook реализует прием вебхуков LINE.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/lineapi"
)

// SignatureVerifier проверяет подпись сырого тела вебхука.
type SignatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// Service обрабатывает события подписки на официальный аккаунт.
type Service interface {
	HandleFollow(ctx context.Context, lineUserID string) error
	HandleUnfollow(ctx context.Context, lineUserID string) error
}

type Handler struct {
	log      *slog.Logger
	verifier SignatureVerifier
	service  Service
}

func New(log *slog.Logger, verifier SignatureVerifier, service Service) *Handler {
	return &Handler{
		log:      log,
		verifier: verifier,
		service:  service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.line.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !h.verifier.VerifySignature(body, signature) {
		log.Error("invalid webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	webhook, err := lineapi.ParseWebhook(body)
	if err != nil {
		log.Error("failed to parse webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook body"))
		return
	}

	for _, event := range webhook.Events {
		switch event.Type {
		case lineapi.EventTypeFollow:
			if err := h.service.HandleFollow(r.Context(), event.Source.UserID); err != nil {
				// LINE повторит доставку при не-200 ответе, поэтому ошибку
				// только логируем.
				log.Error("failed to handle follow event", sl.Err(err))
			}
		case lineapi.EventTypeUnfollow:
			if err := h.service.HandleUnfollow(r.Context(), event.Source.UserID); err != nil {
				log.Error("failed to handle unfollow event", sl.Err(err))
			}
		}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"events": len(webhook.Events),
	}))
}
