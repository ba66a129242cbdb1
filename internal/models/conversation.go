package models

import "time"

// Conversation представляет диалог пользователя с консультантом.
type Conversation struct {
	ID          string    `json:"id"`
	UserUID     string    `json:"user_uid"`
	CounselorID string    `json:"counselor_id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message представляет одно сообщение диалога. Роль либо "user", либо "assistant".
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatRequest содержит данные JSON-запроса на отправку сообщения консультанту.
type ChatRequest struct {
	Message        string `json:"message" validate:"required"`
	CounselorID    string `json:"counselor_id" validate:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatReply содержит ответ консультанта вместе с идентификатором диалога.
type ChatReply struct {
	ConversationID string `json:"conversation_id"`
	CounselorID    string `json:"counselor_id"`
	Content        string `json:"content"`
	TokensUsed     int    `json:"tokens_used"`
}
