package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// OpenAI - клиент Chat Completions API.
type OpenAI struct {
	apiKey       string
	defaultModel string
	apiURL       string
	httpClient   *http.Client
}

// NewOpenAI создаёт новый клиент OpenAI.
func NewOpenAI(apiKey, defaultModel string) *OpenAI {
	return &OpenAI{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		apiURL:       "https://api.openai.com",
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Name возвращает имя провайдера.
func (c *OpenAI) Name() string { return "openai" }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openaiMessage `json:"messages"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete генерирует ответ через Chat Completions API.
// Без настроенного ключа возвращается заглушка.
func (c *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return &Response{Content: Placeholder}, nil
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	messages := []openaiMessage{{Role: "system", Content: req.SystemPrompt}}
	for _, msg := range injectRagContext(req.Messages, req.RagContext) {
		messages = append(messages, openaiMessage{Role: msg.Role, Content: msg.Content})
	}

	body := openaiRequest{Model: model, Temperature: 0.7, Messages: messages}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/v1/chat/completions", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("openai request failed: " + resp.Status)
	}

	var out openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return &Response{Content: Placeholder}, nil
	}
	return &Response{
		Content:    out.Choices[0].Message.Content,
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}
