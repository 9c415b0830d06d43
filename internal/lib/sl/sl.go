// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to revoke session", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Token возвращает укороченный токен для логов: сами токены в лог не пишутся.
func Token(key, token string) slog.Attr {
	if len(token) <= 6 {
		return slog.String(key, "***")
	}
	return slog.String(key, token[:6]+"***")
}
