package models

import "time"

// Типы событий жизненного цикла, они же routing key в брокере.
const (
	EventSessionCreated = "session.created"
	EventSessionRevoked = "session.revoked"
	EventSessionExpired = "session.expired"
	EventUserDeleted    = "user.deleted"
)

// SessionEvent событие жизненного цикла сессии или пользователя.
// Токен сессии в событие не попадает, только внутренний ID строки.
type SessionEvent struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id,omitempty"`
	UserUID    string    `json:"user_uid"`
	Sessions   int64     `json:"sessions,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
