// Package middlewarectx содержит HTTP middleware шлюза: проверку access-токена,
// проверку роли, ограничение частоты запросов и метрики запросов.
//
// AuthMiddleware проверяет токен из заголовка Authorization через WhoAmI
// и кладёт в контекст UID пользователя, его роль и идентификатор сессии.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID ключ UID пользователя в контексте
	UserUID Key = "user_uid"
	// Role ключ роли пользователя в контексте
	Role Key = "role"
	// SessionID ключ идентификатора сессии в контексте
	SessionID Key = "session_id"
)

// Service определяет пользователя по access-токену.
type Service interface {
	WhoAmI(ctx context.Context, accessToken string) (*models.UserSummary, error)
}

// BearerToken достаёт токен из заголовка Authorization.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// AuthMiddleware пропускает запрос только с действующим access-токеном.
func AuthMiddleware(service Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AuthMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := BearerToken(r)
			if !ok {
				log.Info("missing or invalid authorization header")
				response.WriteError(w, r, http.StatusUnauthorized, auth.Code(auth.ErrUnauthenticated))
				return
			}

			summary, err := service.WhoAmI(r.Context(), token)
			if err != nil {
				if auth.Code(err) == "" {
					log.Error("failed to validate token", sl.Err(err))
					response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
					return
				}
				log.Info("invalid token", sl.Err(err))
				response.WriteError(w, r, http.StatusUnauthorized, auth.Code(auth.ErrUnauthenticated))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, summary.UserUID)
			ctx = context.WithValue(ctx, Role, summary.Role)
			ctx = context.WithValue(ctx, SessionID, summary.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только пользователей с указанной ролью.
// Ставится после AuthMiddleware.
func RequireRole(role models.Role, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ := r.Context().Value(Role).(models.Role)
			if got != role {
				log.Warn("access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("role", string(got)),
				)
				response.WriteError(w, r, http.StatusForbidden, response.CodeForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
