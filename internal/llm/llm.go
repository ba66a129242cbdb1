// Package llm реализует клиенты языковых моделей для генерации ответов консультантов.
package llm

import (
	"context"
	"strings"
)

// Placeholder возвращается вместо ответа модели, когда API-ключ не настроен
// или провайдер недоступен.
const Placeholder = "LLM APIキーが設定されていないため、デモ応答を返します。設定後に再度お試しください。"

// Роли сообщений диалога.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage представляет одно сообщение диалога.
type ChatMessage struct {
	Role    string
	Content string
}

// Request представляет запрос к языковой модели.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	RagContext   string
}

// Response представляет ответ языковой модели.
type Response struct {
	Content    string
	TokensUsed int
}

// Provider описывает клиент одного поставщика языковых моделей.
type Provider interface {
	// Complete генерирует ответ на диалог.
	Complete(ctx context.Context, req Request) (*Response, error)
	// Name возвращает имя провайдера.
	Name() string
}

// Router выбирает провайдера по имени, прописанному у консультанта.
// Неизвестные имена направляются в OpenAI.
type Router struct {
	providers map[string]Provider
	fallback  Provider
}

// NewRouter создает новый экземпляр Router.
func NewRouter(openai, anthropic, gemini Provider) *Router {
	return &Router{
		providers: map[string]Provider{
			openai.Name():    openai,
			anthropic.Name(): anthropic,
			gemini.Name():    gemini,
		},
		fallback: openai,
	}
}

// Complete направляет запрос провайдеру консультанта.
func (r *Router) Complete(ctx context.Context, provider string, req Request) (*Response, error) {
	p, ok := r.providers[provider]
	if !ok {
		p = r.fallback
	}
	return p.Complete(ctx, req)
}

// injectRagContext вставляет найденные фрагменты базы знаний в последнее
// сообщение пользователя. Модель получает контекст вместе с вопросом.
func injectRagContext(messages []ChatMessage, ragContext string) []ChatMessage {
	ragContext = strings.TrimSpace(ragContext)
	if ragContext == "" {
		return messages
	}
	preface := strings.Join([]string{
		"【参考情報（RAG）】",
		"以下の専門知識は最新の検索結果です。内容を必ず読み、要点を整理してから回答してください。",
		ragContext,
		"【参考情報ここまで】",
		"上記を踏まえてユーザーのメッセージに答えてください。",
	}, "\n")

	cloned := make([]ChatMessage, len(messages))
	copy(cloned, messages)
	for i := len(cloned) - 1; i >= 0; i-- {
		if cloned[i].Role == RoleUser {
			cloned[i].Content = preface + "\n\n" + cloned[i].Content
			return cloned
		}
	}
	return append(cloned, ChatMessage{Role: RoleUser, Content: preface})
}
