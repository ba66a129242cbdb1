// Package models содержит доменные структуры приложения: пользователи,
// подписки, пробные периоды, кампании, консультанты, диалоги и база знаний.
package models

import "time"

// PlanTier обозначает уровень тарифного плана, на котором основан текущий доступ.
type PlanTier string

const (
	// PlanNone означает, что платный доступ отсутствует.
	PlanNone PlanTier = "none"
	// PlanBasic открывает только индивидуальные консультации.
	PlanBasic PlanTier = "basic"
	// PlanPremium открывает индивидуальные и командные консультации.
	PlanPremium PlanTier = "premium"
)

// AccessState описывает текущее состояние доступа пользователя.
// Вычисляется заново при каждом запросе и нигде не сохраняется.
type AccessState struct {
	Plan                  PlanTier   `json:"plan"`
	HasActiveSubscription bool       `json:"hasActiveSubscription"`
	OnTrial               bool       `json:"onTrial"`
	TrialExpiresAt        *time.Time `json:"trialExpiresAt,omitempty"`
	LineLinked            bool       `json:"lineLinked"`
	CanUseIndividual      bool       `json:"canUseIndividual"`
	CanUseTeam            bool       `json:"canUseTeam"`
}
