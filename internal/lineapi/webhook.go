package lineapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// Типы событий вебхука LINE, которые обрабатывает сервис.
const (
	EventTypeFollow   = "follow"
	EventTypeUnfollow = "unfollow"
	EventTypeMessage  = "message"
)

// WebhookEvent представляет одно событие вебхука.
type WebhookEvent struct {
	Type   string `json:"type"`
	Source struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
	Timestamp int64 `json:"timestamp"`
}

// WebhookBody представляет тело вебхука LINE.
type WebhookBody struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events"`
}

// VerifySignature проверяет подпись вебхука: HMAC-SHA256 от сырого тела,
// закодированный base64, должен совпасть с заголовком X-Line-Signature.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook разбирает тело вебхука.
func ParseWebhook(body []byte) (*WebhookBody, error) {
	var webhook WebhookBody
	if err := json.Unmarshal(body, &webhook); err != nil {
		return nil, err
	}
	return &webhook, nil
}
