package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials неверный email или пароль. Причину не раскрываем.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired срок жизни сессии истёк.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked сессия отозвана, не найдена или refresh-материал не совпал.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrUnauthenticated access-токен недействителен или его сессия неактивна.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTooManyAttempts превышен лимит попыток входа.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// RateLimitError отказ по лимиту попыток с временем до следующей попытки.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrTooManyAttempts, e.RetryAfter)
}

// Is позволяет сравнивать с ErrTooManyAttempts через errors.Is.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrTooManyAttempts
}

// Code возвращает код ошибки для ответа клиенту. Пустая строка для внутренних ошибок.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "InvalidCredentials"
	case errors.Is(err, ErrSessionExpired):
		return "SessionExpired"
	case errors.Is(err, ErrSessionRevoked):
		return "SessionRevoked"
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthenticated"
	case errors.Is(err, ErrTooManyAttempts):
		return "TooManyAttempts"
	default:
		return ""
	}
}
