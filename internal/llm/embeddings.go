package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Модель векторизации текста для поиска по базе знаний.
const embeddingModel = "text-embedding-3-small"

// Embedder вычисляет векторные представления текста.
type Embedder interface {
	// Embed возвращает вектор для текста.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder - клиент Embeddings API.
type OpenAIEmbedder struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewOpenAIEmbedder создаёт новый клиент векторизации.
func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey:     apiKey,
		apiURL:     "https://api.openai.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed возвращает вектор текста через Embeddings API.
func (c *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, errors.New("openai api key is not configured")
	}

	body := embeddingRequest{Model: embeddingModel, Input: text}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/embeddings", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("embeddings request failed: " + resp.Status)
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, errors.New("embeddings response has no data")
	}
	return out.Data[0].Embedding, nil
}
