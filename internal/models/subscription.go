package models

import "time"

// Статусы записи подписки, как их присылает платёжный провайдер.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription представляет запись о подписке пользователя.
// CurrentPeriodEnd может быть nil: оплаченный период без зафиксированной
// даты окончания считается бессрочным.
type Subscription struct {
	ID               int64      `json:"id"`
	UserUID          string     `json:"user_uid"`
	PlanID           string     `json:"plan_id"`
	Tier             PlanTier   `json:"tier"`
	Status           string     `json:"status"`
	PayPalOrderID    *string    `json:"paypal_order_id,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
