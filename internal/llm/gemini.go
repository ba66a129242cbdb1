package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Gemini - клиент Generative Language API.
// При ответе 404 на неизвестную модель выполняется один переход на запасную.
type Gemini struct {
	apiKey        string
	defaultModel  string
	fallbackModel string
	apiURL        string
	httpClient    *http.Client
}

// NewGemini создаёт новый клиент Gemini.
func NewGemini(apiKey, defaultModel, fallbackModel string) *Gemini {
	return &Gemini{
		apiKey:        apiKey,
		defaultModel:  defaultModel,
		fallbackModel: fallbackModel,
		apiURL:        "https://generativelanguage.googleapis.com",
		httpClient:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Name возвращает имя провайдера.
func (c *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete генерирует ответ через generateContent.
func (c *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return &Response{Content: Placeholder}, nil
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	var contents []geminiContent
	for _, msg := range injectRagContext(req.Messages, req.RagContext) {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	attemptedFallback := false
	for {
		body := geminiRequest{
			SystemInstruction: geminiContent{
				Role:  "system",
				Parts: []geminiPart{{Text: req.SystemPrompt}},
			},
			Contents: contents,
		}
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}

		url := c.apiURL + "/v1beta/models/" + model + ":generateContent?key=" + c.apiKey
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
		if err != nil {
			return nil, err
		}
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
			return nil, errors.New("gemini request failed: " + resp.Status)
		}

		var out geminiResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 ||
			out.Candidates[0].Content.Parts[0].Text == "" {
			return &Response{Content: Placeholder}, nil
		}
		return &Response{Content: out.Candidates[0].Content.Parts[0].Text}, nil
	}
}
