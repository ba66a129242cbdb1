package models

// Counselor описывает ИИ-консультанта: персону, LLM-провайдера и модель,
// а также признаки командного режима и подключённой базы знаний.
type Counselor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	AvatarURL    string `json:"avatar_url"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"-"`
	Team         bool   `json:"team"`
	RagEnabled   bool   `json:"rag_enabled"`
	SessionCount int    `json:"session_count"`
}
