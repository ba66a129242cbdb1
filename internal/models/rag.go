package models

import "time"

// RagDocument представляет исходный документ базы знаний консультанта.
type RagDocument struct {
	ID          string    `json:"id"`
	CounselorID string    `json:"counselor_id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
}

// RagChunk представляет фрагмент документа с эмбеддингом. Поиск идёт по полю
// Content, а в ответ модели подставляется ParentContent с более широким контекстом.
type RagChunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	CounselorID   string    `json:"counselor_id"`
	ParentContent string    `json:"parent_content"`
	Content       string    `json:"content"`
	Embedding     []float32 `json:"-"`
}

// RagMatch представляет результат поиска по базе знаний с оценкой близости.
type RagMatch struct {
	ParentContent string  `json:"parent_content"`
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
}
