// Package session реализует жизненный цикл серверных сессий:
// создание, проверку, отзыв, ленивое истечение и каскад при удалении пользователя.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/token"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/storage"
)

// MaxCreateAttempts число попыток получить уникальный токен.
const MaxCreateAttempts = 3

// Repository определяет методы хранилища сессий.
type Repository interface {
	// InsertSession сохраняет сессию активного пользователя.
	InsertSession(ctx context.Context, s models.Session) (*models.Session, error)
	// GetSessionByToken возвращает сессию по токену.
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	// MarkSessionEnded проставляет ended_at, true если отметка сделана этим вызовом.
	MarkSessionEnded(ctx context.Context, token string, now time.Time) (bool, error)
	// RevokeSession отзывает активную сессию, nil если ничего не изменилось.
	RevokeSession(ctx context.Context, token string, now time.Time) (*models.Session, error)
	// ExtendSession сдвигает срок жизни живой сессии.
	ExtendSession(ctx context.Context, token string, expiresAt, now time.Time) (bool, error)
	// DeleteUserCascade удаляет пользователя, его профиль и сессии.
	DeleteUserCascade(ctx context.Context, userUID string) (int64, error)
}

// EventPublisher публикует события жизненного цикла.
type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

// Meta сведения о клиенте, открывающем сессию.
type Meta struct {
	UserAgent string
	IPAddress string
}

// Issued результат создания сессии. RefreshMaterial отдаётся клиенту один раз
// и в хранилище не попадает.
type Issued struct {
	Session         *models.Session
	RefreshMaterial string
}

// Service реализует правила жизненного цикла сессий поверх Repository.
type Service struct {
	repo      Repository
	events    EventPublisher
	log       *slog.Logger
	ttl       time.Duration
	now       func() time.Time
	newSecret func() (string, error)
}

// New создаёт сервис сессий. ttl срок жизни новой сессии.
func New(repo Repository, events EventPublisher, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: events,
		log:    log,
		ttl:    ttl,
		now:    time.Now,
		newSecret: func() (string, error) {
			return token.New(token.DefaultBytes)
		},
	}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithSecretSource подменяет генератор токенов и refresh-материала.
func (s *Service) WithSecretSource(gen func() (string, error)) *Service {
	s.newSecret = gen
	return s
}

// TTL срок жизни новой сессии.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Now текущее время по часам сервиса.
func (s *Service) Now() time.Time {
	return s.now()
}

// CreateSession открывает сессию для активного пользователя.
// При совпадении токена повторяет попытку со свежим материалом.
func (s *Service) CreateSession(ctx context.Context, userUID string, meta Meta) (*Issued, error) {
	const op = "session.CreateSession"

	for attempt := 1; attempt <= MaxCreateAttempts; attempt++ {
		sessionToken, err := s.newSecret()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		refresh, err := s.newSecret()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		now := s.now().UTC()
		stored, err := s.repo.InsertSession(ctx, models.Session{
			ID:          ulid.Make().String(),
			UserUID:     userUID,
			Token:       sessionToken,
			RefreshHash: token.Hash(refresh),
			UserAgent:   meta.UserAgent,
			IPAddress:   meta.IPAddress,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.ttl),
		})
		switch {
		case err == nil:
			s.publish(ctx, models.SessionEvent{
				Type:       models.EventSessionCreated,
				SessionID:  stored.ID,
				UserUID:    stored.UserUID,
				OccurredAt: now,
			})
			return &Issued{Session: stored, RefreshMaterial: refresh}, nil
		case errors.Is(err, storage.ErrSessionConflict):
			s.log.Warn("session token collision, retrying", slog.Int("attempt", attempt))
			continue
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		default:
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", op, ErrSessionConflict)
}

// ValidateSession возвращает активную сессию или ошибку с причиной:
// ErrSessionNotFound, ErrSessionRevoked, ErrSessionExpired.
// Истёкшая сессия при первом обнаружении помечается ended_at.
func (s *Service) ValidateSession(ctx context.Context, sessionToken string) (*models.Session, error) {
	const op = "session.ValidateSession"
	if sessionToken == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := s.repo.GetSessionByToken(ctx, sessionToken)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	switch sess.State(now) {
	case models.SessionRevoked:
		return nil, ErrSessionRevoked
	case models.SessionExpired:
		if sess.EndedAt == nil {
			s.markEnded(ctx, sess, now)
		}
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// markEnded фиксирует истечение. Ошибка только логируется: состояние
// вычисляется по expires_at и без отметки.
func (s *Service) markEnded(ctx context.Context, sess *models.Session, now time.Time) {
	stamped, err := s.repo.MarkSessionEnded(ctx, sess.Token, now)
	if err != nil {
		s.log.Warn("failed to mark session ended", slog.String("session_id", sess.ID), sl.Err(err))
		return
	}
	if stamped {
		s.publish(ctx, models.SessionEvent{
			Type:       models.EventSessionExpired,
			SessionID:  sess.ID,
			UserUID:    sess.UserUID,
			OccurredAt: now,
		})
	}
}

// RevokeSession отзывает сессию. Повторный отзыв, отзыв истёкшей или
// неизвестной сессии успешен и ничего не меняет.
func (s *Service) RevokeSession(ctx context.Context, sessionToken string) error {
	const op = "session.RevokeSession"
	if sessionToken == "" {
		return nil
	}

	now := s.now().UTC()
	revoked, err := s.repo.RevokeSession(ctx, sessionToken, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if revoked != nil {
		s.publish(ctx, models.SessionEvent{
			Type:       models.EventSessionRevoked,
			SessionID:  revoked.ID,
			UserUID:    revoked.UserUID,
			OccurredAt: now,
		})
	}
	return nil
}

// ExtendSession продлевает живую сессию до now + TTL.
// Возвращает новый срок или ErrSessionExpired, если сессия уже не живая.
func (s *Service) ExtendSession(ctx context.Context, sessionToken string) (time.Time, error) {
	const op = "session.ExtendSession"

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	extended, err := s.repo.ExtendSession(ctx, sessionToken, expiresAt, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if !extended {
		return time.Time{}, ErrSessionExpired
	}
	return expiresAt, nil
}

// DeleteUserCascade удаляет пользователя вместе с профилем и всеми сессиями.
func (s *Service) DeleteUserCascade(ctx context.Context, userUID string) error {
	const op = "session.DeleteUserCascade"

	removed, err := s.repo.DeleteUserCascade(ctx, userUID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted with dependants", slog.String("user_uid", userUID), slog.Int64("sessions", removed))
	s.publish(ctx, models.SessionEvent{
		Type:       models.EventUserDeleted,
		UserUID:    userUID,
		Sessions:   removed,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

func (s *Service) publish(ctx context.Context, event models.SessionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish session event", slog.String("type", event.Type), sl.Err(err))
	}
}
