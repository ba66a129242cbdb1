package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Anthropic - клиент Messages API.
// При ответе 404 на неизвестную модель выполняется один переход на запасную.
type Anthropic struct {
	apiKey        string
	defaultModel  string
	fallbackModel string
	apiURL        string
	httpClient    *http.Client
}

// NewAnthropic создаёт новый клиент Anthropic.
func NewAnthropic(apiKey, defaultModel, fallbackModel string) *Anthropic {
	return &Anthropic{
		apiKey:        apiKey,
		defaultModel:  defaultModel,
		fallbackModel: fallbackModel,
		apiURL:        "https://api.anthropic.com",
		httpClient:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Name возвращает имя провайдера.
func (c *Anthropic) Name() string { return "claude" }

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete генерирует ответ через Messages API.
func (c *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return &Response{Content: Placeholder}, nil
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	var messages []anthropicMessage
	for _, msg := range injectRagContext(req.Messages, req.RagContext) {
		messages = append(messages, anthropicMessage{
			Role:    msg.Role,
			Content: []anthropicContent{{Type: "text", Text: msg.Content}},
		})
	}

	attemptedFallback := false
	for {
		body := anthropicRequest{
			Model:     model,
			MaxTokens: 1024,
			System:    req.SystemPrompt,
			Messages:  messages,
		}
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.apiURL+"/v1/messages", &buf)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", "2023-06-01")
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound && !attemptedFallback &&
				c.fallbackModel != "" && model != c.fallbackModel {
				attemptedFallback = true
				model = c.fallbackModel
				continue
			}
			return nil, errors.New("anthropic request failed: " + resp.Status)
		}

		var out anthropicResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if len(out.Content) == 0 || out.Content[0].Text == "" {
			return &Response{Content: Placeholder}, nil
		}
		return &Response{
			Content:    out.Content[0].Text,
			TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
		}, nil
	}
}
