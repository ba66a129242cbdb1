package models

import "time"

// Виды уведомлений об истечении доступа.
const (
	NoticeKindTrial        = "trial"
	NoticeKindSubscription = "subscription"
)

// ExpiryNotice представляет сообщение для очереди уведомлений о скором окончании
// пробного периода или оплаченной подписки.
type ExpiryNotice struct {
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	LineUserID *string   `json:"line_user_id,omitempty"`
	Kind       string    `json:"kind"`
	ExpiresAt  time.Time `json:"expires_at"`
}
