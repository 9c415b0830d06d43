package models

import "time"

// SessionState состояние сессии. Revoked и Expired терминальные.
type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionRevoked SessionState = "revoked"
	SessionExpired SessionState = "expired"
)

// Session запись о пользовательской сессии.
//
// Token непрозрачный уникальный идентификатор, он же sessionId в API.
// RefreshHash SHA-256 (hex) от refresh-материала, сам материал не хранится.
type Session struct {
	ID          string
	UserUID     string
	Token       string
	RefreshHash string
	UserAgent   string
	IPAddress   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	EndedAt     *time.Time

	// UserDeleted true, если владелец сессии удалён мягко.
	UserDeleted bool
}

// State вычисляет состояние сессии на момент now.
// Отзыв имеет приоритет, истечение определяется лениво по expires_at.
func (s *Session) State(now time.Time) SessionState {
	if s.RevokedAt != nil || s.UserDeleted {
		return SessionRevoked
	}
	if s.EndedAt != nil || now.After(s.ExpiresAt) {
		return SessionExpired
	}
	return SessionActive
}
