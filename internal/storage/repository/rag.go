package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// CreateRagDocument сохраняет документ базы знаний.
func (s *Storage) CreateRagDocument(ctx context.Context, doc *models.RagDocument) error {
	const op = "storage.repository.CreateRagDocument"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO rag_documents (id, counselor_id, title, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query, doc.ID, doc.CounselorID, doc.Title, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateRagChunks сохраняет фрагменты документа одной транзакцией.
func (s *Storage) CreateRagChunks(ctx context.Context, chunks []*models.RagChunk) error {
	const op = "storage.repository.CreateRagChunks"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rag_chunks (id, document_id, counselor_id, parent_content, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)`
	for _, chunk := range chunks {
		_, err := tx.ExecContext(ctx, query,
			chunk.ID, chunk.DocumentID, chunk.CounselorID,
			chunk.ParentContent, chunk.Content, vectorLiteral(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SearchRagChunks возвращает фрагменты консультанта по косинусной близости к запросу.
func (s *Storage) SearchRagChunks(ctx context.Context, counselorID string, embedding []float32, matchCount int, threshold float64) ([]*models.RagMatch, error) {
	const op = "storage.repository.SearchRagChunks"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT parent_content, content, 1 - (embedding <=> $2::vector) AS similarity
		FROM rag_chunks
		WHERE counselor_id = $1
		  AND 1 - (embedding <=> $2::vector) >= $3
		ORDER BY embedding <=> $2::vector
		LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, counselorID, vectorLiteral(embedding), threshold, matchCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var matches []*models.RagMatch
	for rows.Next() {
		var match models.RagMatch
		if err := rows.Scan(&match.ParentContent, &match.Content, &match.Similarity); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return matches, nil
}

// vectorLiteral приводит вектор к текстовому формату pgvector.
func vectorLiteral(embedding []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
