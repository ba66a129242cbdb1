package models

import "time"

// User представляет зарегистрированного пользователя сервиса.
// Поле LineLinkedAt заполняется при привязке аккаунта LINE и служит
// вторым источником истины для статуса "привязан".
type User struct {
	UID          string     `json:"uid"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	LineUserID   *string    `json:"line_user_id,omitempty"`
	LineLinkedAt *time.Time `json:"line_linked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserOverview объединяет пользователя со сводкой его текущего доступа
// для административного списка.
type UserOverview struct {
	User
	Plan           PlanTier   `json:"plan"`
	TrialExpiresAt *time.Time `json:"trial_expires_at,omitempty"`
}

// Metrics содержит сводные показатели использования сервиса.
type Metrics struct {
	Users               int              `json:"users"`
	Conversations       int              `json:"conversations"`
	Messages            int              `json:"messages"`
	ActiveTrials        int              `json:"active_trials"`
	ActiveSubscriptions map[PlanTier]int `json:"active_subscriptions"`
}

// RegisterRequest содержит данные JSON-запроса на регистрацию.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest содержит данные JSON-запроса на вход.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
