package session

import "errors"

var (
	// ErrSessionNotFound сессии с таким токеном нет.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRevoked сессия отозвана или её владелец удалён.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrSessionExpired срок жизни сессии истёк.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionConflict не удалось получить уникальный токен за отведённые попытки.
	ErrSessionConflict = errors.New("session token conflict")
	// ErrUserNotFound пользователь не существует или удалён.
	ErrUserNotFound = errors.New("user not found")
)

// Причины недействительности сессии.
const (
	ReasonNotFound = "NotFound"
	ReasonRevoked  = "Revoked"
	ReasonExpired  = "Expired"
)

// Reason возвращает причину недействительности сессии для ошибки ValidateSession.
// Для прочих ошибок возвращается пустая строка.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrSessionRevoked):
		return ReasonRevoked
	case errors.Is(err, ErrSessionExpired):
		return ReasonExpired
	default:
		return ""
	}
}
