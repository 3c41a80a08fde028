package models

import "time"

// PushToken is the single push destination registered for a user.
type PushToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}
