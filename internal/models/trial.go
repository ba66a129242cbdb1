package models

import "time"

// Trial представляет пробный период пользователя. На пользователя приходится
// не более одной записи. TrialExpiresAt может отсутствовать: привязка LINE
// без активированного окна пробного периода.
type Trial struct {
	UserUID        string     `json:"user_uid"`
	Source         string     `json:"source"`
	LineLinked     bool       `json:"line_linked"`
	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialExpiresAt *time.Time `json:"trial_expires_at,omitempty"`
}
