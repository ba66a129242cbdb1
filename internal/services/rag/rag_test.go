package rag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoroai/counselor-backend/internal/models"
)

type RepositoryMock struct{ mock.Mock }

func (m *RepositoryMock) CreateRagDocument(ctx context.Context, doc *models.RagDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *RepositoryMock) CreateRagChunks(ctx context.Context, chunks []*models.RagChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *RepositoryMock) SearchRagChunks(ctx context.Context, counselorID string, embedding []float32, matchCount int, threshold float64) ([]*models.RagMatch, error) {
	args := m.Called(ctx, counselorID, embedding, matchCount, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RagMatch), args.Error(1)
}

type EmbedderMock struct{ mock.Mock }

func (m *EmbedderMock) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChunkText(t *testing.T) {
	text := strings.Repeat("あ", 1000)

	chunks := chunkText(text, 600, 50)

	require.Len(t, chunks, 2)
	assert.Equal(t, 600, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 450, utf8.RuneCountInString(chunks[1]))
	// перекрытие: конец первого фрагмента повторяется в начале второго
	assert.Equal(t, strings.Repeat("あ", 450), chunks[1])
}

func TestChunkText_Short(t *testing.T) {
	chunks := chunkText("短いテキスト", 600, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "短いテキスト", chunks[0])
}

func TestChunkText_NormalizesWhitespace(t *testing.T) {
	chunks := chunkText("  hello \n\n world\t ", 600, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, chunkText("   ", 600, 50))
}

func TestIngestDocument(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("CreateRagDocument", mock.Anything, mock.MatchedBy(func(doc *models.RagDocument) bool {
		return doc.CounselorID == "aoi" && doc.Title == "睡眠衛生ガイド"
	})).Return(nil)
	repo.On("CreateRagChunks", mock.Anything, mock.MatchedBy(func(chunks []*models.RagChunk) bool {
		if len(chunks) == 0 {
			return false
		}
		for _, chunk := range chunks {
			if chunk.CounselorID != "aoi" || len(chunk.Embedding) == 0 || chunk.ParentContent == "" {
				return false
			}
		}
		return true
	})).Return(nil)

	embedder := new(EmbedderMock)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)

	svc := NewService(repo, embedder, discardLogger())

	docID, err := svc.IngestDocument(context.Background(), "aoi", "睡眠衛生ガイド", strings.Repeat("眠", 700))
	require.NoError(t, err)
	assert.NotEmpty(t, docID)
	repo.AssertExpectations(t)
}

func TestSearchContext_ThresholdLadder(t *testing.T) {
	embedding := []float32{0.5, 0.5}
	repo := new(RepositoryMock)
	// первые два порога пустые, третий находит фрагмент
	repo.On("SearchRagChunks", mock.Anything, "aoi", embedding, 8, 0.65).Return([]*models.RagMatch{}, nil)
	repo.On("SearchRagChunks", mock.Anything, "aoi", embedding, 8, 0.58).Return([]*models.RagMatch{}, nil)
	repo.On("SearchRagChunks", mock.Anything, "aoi", embedding, 8, 0.50).Return([]*models.RagMatch{
		{ParentContent: "睡眠衛生の基本", Similarity: 0.52},
	}, nil)

	embedder := new(EmbedderMock)
	embedder.On("Embed", mock.Anything, "眠れない").Return(embedding, nil)

	svc := NewService(repo, embedder, discardLogger())

	context_, err := svc.SearchContext(context.Background(), "aoi", "眠れない")
	require.NoError(t, err)
	assert.Contains(t, context_, "[ソース 1] (score: 0.52)")
	assert.Contains(t, context_, "睡眠衛生の基本")
	repo.AssertNotCalled(t, "SearchRagChunks", mock.Anything, "aoi", embedding, 8, 0.45)
}

func TestSearchContext_NothingFound(t *testing.T) {
	embedding := []float32{0.5}
	repo := new(RepositoryMock)
	for _, threshold := range []float64{0.65, 0.58, 0.50, 0.45, 0.35} {
		repo.On("SearchRagChunks", mock.Anything, "aoi", embedding, 8, threshold).Return([]*models.RagMatch{}, nil)
	}

	embedder := new(EmbedderMock)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(embedding, nil)

	svc := NewService(repo, embedder, discardLogger())

	context_, err := svc.SearchContext(context.Background(), "aoi", "query")
	require.NoError(t, err)
	assert.Empty(t, context_)
}

func TestSearchContext_EmbedderDown(t *testing.T) {
	embedder := new(EmbedderMock)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("api key missing"))

	svc := NewService(new(RepositoryMock), embedder, discardLogger())

	context_, err := svc.SearchContext(context.Background(), "aoi", "query")
	require.NoError(t, err, "missing embedder must not break the chat")
	assert.Empty(t, context_)
}

func TestSearchContext_MultipleSources(t *testing.T) {
	embedding := []float32{0.5}
	repo := new(RepositoryMock)
	repo.On("SearchRagChunks", mock.Anything, "aoi", embedding, 8, 0.65).Return([]*models.RagMatch{
		{ParentContent: "資料A", Similarity: 0.9},
		{Content: "資料B", Similarity: 0.7},
	}, nil)

	embedder := new(EmbedderMock)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(embedding, nil)

	svc := NewService(repo, embedder, discardLogger())

	context_, err := svc.SearchContext(context.Background(), "aoi", "query")
	require.NoError(t, err)
	assert.Contains(t, context_, "[ソース 1]")
	assert.Contains(t, context_, "[ソース 2]")
	assert.Contains(t, context_, "資料B", "content is used when parent content is empty")
}
