// Package webhook реализует прием вебхуков PayPal.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kokoroai/counselor-backend/internal/http/response"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/paypal"
)

// eventCaptureCompleted - единственный тип события, меняющий состояние подписок.
const eventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"

// SignatureVerifier проверяет подпись события через API PayPal.
type SignatureVerifier interface {
	VerifyWebhookSignature(ctx context.Context, headers paypal.WebhookHeaders, rawEvent []byte) (bool, error)
}

// Service активирует подписку по подтверждённому списанию.
type Service interface {
	HandleCaptureCompleted(ctx context.Context, event *paypal.WebhookEvent) error
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
	const op = "handlers.payment.webhook"

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

	headers := paypal.WebhookHeaders{
		AuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
		CertURL:          r.Header.Get("Paypal-Cert-Url"),
		TransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
		TransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
		TransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
	}
	verified, err := h.verifier.VerifyWebhookSignature(r.Context(), headers, body)
	if err != nil {
		log.Error("failed to verify webhook signature", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to verify signature"))
		return
	}
	if !verified {
		log.Error("invalid webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event paypal.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to parse webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook body"))
		return
	}

	if event.EventType == eventCaptureCompleted {
		if err := h.service.HandleCaptureCompleted(r.Context(), &event); err != nil {
			// PayPal повторит доставку при не-2xx ответе.
			log.Error("failed to handle capture event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process event"))
			return
		}
	} else {
		log.Info("webhook event ignored", slog.String("event_type", event.EventType))
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"event_type": event.EventType,
	}))
}
