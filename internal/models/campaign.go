package models

import "time"

// CampaignCode описывает промокод кампании с ограничениями на срок и число применений.
// UsageLimit, ValidFrom и ValidTo могут быть nil, тогда соответствующее ограничение не действует.
type CampaignCode struct {
	ID           int64      `json:"id"`
	Code         string     `json:"code"`
	Description  string     `json:"description"`
	DurationDays int        `json:"duration_days"`
	UsageLimit   *int       `json:"usage_limit,omitempty"`
	UsageCount   int        `json:"usage_count"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CampaignRedemption фиксирует применение промокода пользователем.
type CampaignRedemption struct {
	ID         int64     `json:"id"`
	UserUID    string    `json:"user_uid"`
	CampaignID int64     `json:"campaign_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}
