package models

import "time"

// Account event types, used as routing keys.
const (
	EventUserRegistered      = "user.registered"
	EventUsernameChanged     = "user.username_changed"
	EventUserPasswordChanged = "user.password_changed"
)

// AccountEvent describes a committed change to an account. It never carries credentials.
type AccountEvent struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}
