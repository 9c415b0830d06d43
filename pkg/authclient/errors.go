package authclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired срок жизни сессии истёк, нужен повторный вход.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked сессия отозвана, нужен повторный вход.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrUnauthenticated access-токен не принят шлюзом.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTooManyAttempts превышен лимит попыток входа.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrNetworkTimeout шлюз не ответил за отведённое время.
	ErrNetworkTimeout = errors.New("network timeout")
	// ErrTransport запрос не дошёл до шлюза или ответ не разобран.
	ErrTransport = errors.New("transport error")
	// ErrLoggedOut выход или новый вход случились, пока шёл запрос.
	ErrLoggedOut = errors.New("logged out during request")
	// ErrNotLoggedIn у клиента нет сессии.
	ErrNotLoggedIn = errors.New("not logged in")
)

// APIError неожиданный ответ шлюза.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth gateway responded %d: %s", e.Status, e.Code)
}

func errorForCode(code string) error {
	switch code {
	case "InvalidCredentials":
		return ErrInvalidCredentials
	case "SessionExpired":
		return ErrSessionExpired
	case "SessionRevoked":
		return ErrSessionRevoked
	case "Unauthenticated":
		return ErrUnauthenticated
	case "TooManyAttempts":
		return ErrTooManyAttempts
	default:
		return nil
	}
}

// sessionEnded сообщает, что сессию уже не вернуть и локальное состояние надо сбросить.
func sessionEnded(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionRevoked)
}
