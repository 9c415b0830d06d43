// Package jwt реализует генерацию и парсинг access-токенов (JWT HS256),
// привязанных к пользовательской сессии.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга access-токенов.
type Maker interface {
	// GenerateToken подписывает токен для сессии sessionID пользователя userUID,
	// действующий до expiresAt.
	GenerateToken(userUID, sessionID, role string, issuedAt, expiresAt time.Time) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа.
type MakerImpl struct {
	secretKey string           // Секретный ключ для подписи токенов.
	now       func() time.Time // Часы для проверки exp, подменяются в тестах.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа.
func NewJWTMaker(secretKey string) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		now:       time.Now,
	}
}

// WithClock возвращает копию MakerImpl с другими часами.
func (j *MakerImpl) WithClock(now func() time.Time) *MakerImpl {
	return &MakerImpl{secretKey: j.secretKey, now: now}
}
