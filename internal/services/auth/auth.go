// Package auth реализует шлюз аутентификации: вход, обновление access-токена,
// выход и определение текущего пользователя по access-токену.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/admin-sessions/internal/cache"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/jwt"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/password"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/token"
	"github.com/magabrotheeeer/admin-sessions/internal/metrics"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
	"github.com/magabrotheeeer/admin-sessions/internal/storage"
)

const userCacheTTL = 5 * time.Minute

// UserRepository определяет чтение пользователей.
type UserRepository interface {
	// GetUserByEmail возвращает пользователя по email без учёта регистра.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Sessions операции жизненного цикла сессий, реализуется session.Service.
type Sessions interface {
	CreateSession(ctx context.Context, userUID string, meta session.Meta) (*session.Issued, error)
	ValidateSession(ctx context.Context, sessionToken string) (*models.Session, error)
	RevokeSession(ctx context.Context, sessionToken string) error
	ExtendSession(ctx context.Context, sessionToken string) (time.Time, error)
	Now() time.Time
}

// Cache описывает кэш сведений о пользователе.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Limiter ограничивает число попыток входа на email.
type Limiter interface {
	Allow(ctx context.Context, email string) cache.Decision
	Reset(ctx context.Context, email string) error
}

// Options параметры выдачи токенов.
type Options struct {
	AccessTokenTTL time.Duration
	SlidingExpiry  bool
}

// LoginResult результат входа.
type LoginResult struct {
	AccessToken      string
	RefreshMaterial  string
	SessionID        string
	ExpiresInSeconds int64
}

// RefreshResult результат обновления access-токена.
type RefreshResult struct {
	AccessToken      string
	ExpiresInSeconds int64
}

// Service шлюз аутентификации.
type Service struct {
	users    UserRepository
	sessions Sessions
	jwtMaker jwt.Maker
	cache    Cache
	limiter  Limiter
	metrics  *metrics.Metrics
	opts     Options
	log      *slog.Logger
}

// New создаёт шлюз. cache, limiter и m могут быть nil.
func New(users UserRepository, sessions Sessions, jwtMaker jwt.Maker, cache Cache, limiter Limiter,
	m *metrics.Metrics, opts Options, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		jwtMaker: jwtMaker,
		cache:    cache,
		limiter:  limiter,
		metrics:  m,
		opts:     opts,
		log:      log,
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится и сравнивается.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login проверяет учётные данные и открывает новую сессию.
// Неизвестный пользователь, удалённый пользователь и неверный пароль
// неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, rawPassword string, meta session.Meta) (result *LoginResult, err error) {
	const op = "auth.Login"
	defer func() { s.outcome("login", err) }()

	email = NormalizeEmail(email)
	if s.limiter != nil {
		if d := s.limiter.Allow(ctx, email); !d.Allowed {
			return nil, &RateLimitError{RetryAfter: d.RetryAfter}
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		_ = password.CompareDummy(rawPassword)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.Active() {
		_ = password.CompareDummy(rawPassword)
		return nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Error("password comparison failed", slog.String("user_uid", user.UUID), sl.Err(err))
		}
		return nil, ErrInvalidCredentials
	}

	issued, err := s.sessions.CreateSession(ctx, user.UUID, meta)
	if errors.Is(err, session.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, expiresIn, err := s.issueAccess(user.UUID, string(user.Role), issued.Session)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn("failed to reset login attempts", sl.Err(err))
		}
	}
	s.log.Info("user logged in", slog.String("user_uid", user.UUID), slog.String("session_id", issued.Session.ID))

	return &LoginResult{
		AccessToken:      access,
		RefreshMaterial:  issued.RefreshMaterial,
		SessionID:        issued.Session.Token,
		ExpiresInSeconds: expiresIn,
	}, nil
}

// Refresh выдаёт новый access-токен для активной сессии.
// Несовпадение refresh-материала отзывает сессию.
func (s *Service) Refresh(ctx context.Context, sessionID, refreshMaterial string) (result *RefreshResult, err error) {
	const op = "auth.Refresh"
	defer func() { s.outcome("refresh", err) }()

	sess, err := s.sessions.ValidateSession(ctx, sessionID)
	if err != nil {
		return nil, mapSessionError(op, err, ErrSessionRevoked)
	}

	if !token.Equal(sess.RefreshHash, refreshMaterial) {
		if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
			s.log.Error("failed to revoke session after refresh mismatch", sl.Err(err))
		}
		s.log.Warn("refresh material mismatch, session revoked", slog.String("session_id", sess.ID))
		return nil, ErrSessionRevoked
	}

	if s.opts.SlidingExpiry {
		expiresAt, err := s.sessions.ExtendSession(ctx, sessionID)
		if errors.Is(err, session.ErrSessionExpired) {
			return nil, ErrSessionExpired
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sess.ExpiresAt = expiresAt
	}

	summary, err := s.userSummary(ctx, sess.UserUID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrSessionRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, expiresIn, err := s.issueAccess(sess.UserUID, string(summary.Role), sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RefreshResult{AccessToken: access, ExpiresInSeconds: expiresIn}, nil
}

// Logout отзывает сессию. Неизвестная или уже завершённая сессия не ошибка.
func (s *Service) Logout(ctx context.Context, sessionID string) (err error) {
	const op = "auth.Logout"
	defer func() { s.outcome("logout", err) }()

	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WhoAmI возвращает пользователя по access-токену. Ошибка оборачивает
// ErrUnauthenticated и причину из session (session.Reason).
func (s *Service) WhoAmI(ctx context.Context, accessToken string) (summary *models.UserSummary, err error) {
	const op = "auth.WhoAmI"
	defer func() { s.outcome("whoami", err) }()

	claims, err := s.jwtMaker.ParseToken(accessToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		if session.Reason(err) != "" {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess.UserUID != claims.UserUID {
		return nil, ErrUnauthenticated
	}

	cached, err := s.userSummary(ctx, sess.UserUID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, session.ErrSessionRevoked)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := *cached
	out.SessionID = sess.Token
	return &out, nil
}

// issueAccess подписывает access-токен, не переживающий сессию.
func (s *Service) issueAccess(userUID, role string, sess *models.Session) (string, int64, error) {
	now := s.sessions.Now().UTC().Truncate(time.Second)
	exp := now.Add(s.opts.AccessTokenTTL)
	if sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}
	if !exp.After(now) {
		return "", 0, ErrSessionExpired
	}
	access, err := s.jwtMaker.GenerateToken(userUID, sess.Token, role, now, exp)
	if err != nil {
		return "", 0, err
	}
	return access, int64(exp.Sub(now) / time.Second), nil
}

// userSummary читает пользователя через кэш. Удалённый пользователь даёт storage.ErrUserNotFound.
func (s *Service) userSummary(ctx context.Context, userUID string) (*models.UserSummary, error) {
	key := cache.UserKey(userUID)
	if s.cache != nil {
		var cached models.UserSummary
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("user cache read failed", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, storage.ErrUserNotFound
	}
	summary := &models.UserSummary{UserUID: user.UUID, Email: user.Email, Role: user.Role}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, userCacheTTL); err != nil {
			s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
		}
	}
	return summary, nil
}

func mapSessionError(op string, err, notFound error) error {
	switch session.Reason(err) {
	case session.ReasonNotFound:
		return notFound
	case session.ReasonRevoked:
		return ErrSessionRevoked
	case session.ReasonExpired:
		return ErrSessionExpired
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) outcome(op string, err error) {
	if err == nil {
		s.metrics.Outcome(op, "success")
		return
	}
	code := Code(err)
	if code == "" {
		code = "InternalError"
	}
	s.metrics.Outcome(op, code)
}
