// Package ragupload реализует загрузку документа в базу знаний консультанта.
package ragupload

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

// Request — входные данные для загрузки документа.
type Request struct {
	CounselorID string `json:"counselor_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	IngestDocument(ctx context.Context, counselorID, title, content string) (string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.ragupload"

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

	docID, err := h.service.IngestDocument(r.Context(), req.CounselorID, req.Title, req.Content)
	if err != nil {
		log.Error("failed to ingest document", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to ingest document"))
		return
	}

	log.Info("rag document ingested", slog.String("document_id", docID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"document_id": docID,
	}))
}
