package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventAccountBlocked EventType = "account_blocked"
	EventUserSignedUp   EventType = "user_signed_up"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event represents a security event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason          string `json:"reason"`
	WrongLoginCount int    `json:"wrong_login_count"`
}

// AccountBlockedPayload payload.
type AccountBlockedPayload struct {
	WrongLoginCount int       `json:"wrong_login_count"`
	BlockedUntil    time.Time `json:"blocked_until"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	FirstLogin bool   `json:"first_login"`
	Audience   string `json:"audience"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Audience string `json:"audience"`
}
