// Package rag реализует загрузку документов базы знаний и поиск контекста
// для ответов консультантов.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/llm"
	"github.com/kokoroai/counselor-backend/internal/models"
)

// Размеры фрагментов в рунах: родительский даёт контекст ответа,
// дочерний служит единицей поиска.
const (
	parentSize = 600
	childSize  = 200
	overlap    = 50
)

// defaultMatchCount - число фрагментов в выдаче поиска.
const defaultMatchCount = 8

// Лестница порогов похожести: поиск повторяется с менее строгим порогом,
// пока не найдётся хотя бы один фрагмент.
var thresholds = []float64{0.65, 0.58, 0.50, 0.45, 0.35}

// Repository описывает операции хранилища для базы знаний.
type Repository interface {
	// CreateRagDocument сохраняет документ базы знаний.
	CreateRagDocument(ctx context.Context, doc *models.RagDocument) error
	// CreateRagChunks сохраняет фрагменты документа одной транзакцией.
	CreateRagChunks(ctx context.Context, chunks []*models.RagChunk) error
	// SearchRagChunks возвращает фрагменты по косинусной близости к запросу.
	SearchRagChunks(ctx context.Context, counselorID string, embedding []float32, matchCount int, threshold float64) ([]*models.RagMatch, error)
}

// Service управляет базой знаний консультантов.
type Service struct {
	repo     Repository
	embedder llm.Embedder
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, embedder llm.Embedder, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		log:      log,
	}
}

// IngestDocument разбивает документ на фрагменты, векторизует их и сохраняет.
// Возвращает идентификатор документа.
func (s *Service) IngestDocument(ctx context.Context, counselorID, title, content string) (string, error) {
	const op = "services.rag.IngestDocument"

	doc := &models.RagDocument{
		ID:          uuid.NewString(),
		CounselorID: counselorID,
		Title:       title,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateRagDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var chunks []*models.RagChunk
	for _, parent := range chunkText(content, parentSize, overlap) {
		parentChunk, err := s.buildChunk(ctx, doc, parent, parent)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		chunks = append(chunks, parentChunk)

		for _, child := range chunkText(parent, childSize, overlap) {
			childChunk, err := s.buildChunk(ctx, doc, parent, child)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			chunks = append(chunks, childChunk)
		}
	}
	if err := s.repo.CreateRagChunks(ctx, chunks); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("rag document ingested",
		slog.String("op", op),
		slog.String("counselor_id", counselorID),
		slog.String("document_id", doc.ID),
		slog.Int("chunks", len(chunks)))
	return doc.ID, nil
}

func (s *Service) buildChunk(ctx context.Context, doc *models.RagDocument, parent, content string) (*models.RagChunk, error) {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, err
	}
	return &models.RagChunk{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		CounselorID:   doc.CounselorID,
		ParentContent: parent,
		Content:       content,
		Embedding:     embedding,
	}, nil
}

// SearchContext ищет фрагменты базы знаний, релевантные запросу, и
// собирает из них контекст для модели. Пороги похожести ослабляются,
// пока выдача пуста. Пустой контекст не является ошибкой.
func (s *Service) SearchContext(ctx context.Context, counselorID, query string) (string, error) {
	const op = "services.rag.SearchContext"

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Error("failed to embed query", slog.String("op", op), sl.Err(err))
		return "", nil
	}

	for _, threshold := range thresholds {
		matches, err := s.repo.SearchRagChunks(ctx, counselorID, embedding, defaultMatchCount, threshold)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if len(matches) == 0 {
			continue
		}

		parts := make([]string, 0, len(matches))
		for i, match := range matches {
			text := match.ParentContent
			if text == "" {
				text = match.Content
			}
			parts = append(parts, fmt.Sprintf("[ソース %d] (score: %.2f)\n%s", i+1, match.Similarity, text))
		}
		s.log.Info("rag context found",
			slog.String("op", op),
			slog.Float64("threshold", threshold),
			slog.Int("matches", len(matches)))
		return strings.Join(parts, "\n\n"), nil
	}
	return "", nil
}

// chunkText нормализует пробелы и режет текст на пересекающиеся фрагменты.
// Работает по рунам, чтобы не рвать многобайтные символы.
func chunkText(text string, size, overlap int) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	step := size - overlap
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
