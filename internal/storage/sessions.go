package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

// InsertSession сохраняет сессию активного пользователя.
//
// Проверка владельца и вставка выполняются одним запросом, поэтому сессия
// не может появиться у удалённого пользователя. Повтор токена даёт ErrSessionConflict.
func (s *Storage) InsertSession(ctx context.Context, session models.Session) (*models.Session, error) {
	const op = "storage.InsertSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if uuid.Validate(session.UserUID) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	query := `INSERT INTO user_sessions (id, user_uid, session_token, refresh_hash,
			      user_agent, ip_address, created_at, expires_at)
			  SELECT $1, uid, $3, $4, $5, $6, $7, $8
			  FROM users
			  WHERE uid = $2 AND deleted_at IS NULL
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query,
		session.ID, session.UserUID, session.Token, session.RefreshHash,
		nullIfEmpty(session.UserAgent), nullIfEmpty(session.IPAddress),
		session.CreatedAt, session.ExpiresAt).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	case isUniqueViolation(err, "uq_user_sessions_token"):
		return nil, fmt.Errorf("%s: %w", op, ErrSessionConflict)
	case isForeignKeyViolation(err):
		// пользователь удалён каскадом между проверкой и вставкой
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored := session
	stored.ID = id
	return &stored, nil
}

// GetSessionByToken возвращает сессию по её токену вместе с признаком
// мягкого удаления владельца.
func (s *Storage) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	const op = "storage.GetSessionByToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_uid, s.session_token, s.refresh_hash,
			      COALESCE(s.user_agent, ''), COALESCE(s.ip_address, ''),
			      s.created_at, s.expires_at, s.revoked_at, s.ended_at,
			      u.deleted_at IS NOT NULL
			  FROM user_sessions s
			  JOIN users u ON u.uid = s.user_uid
			  WHERE s.session_token = $1`
	var sess models.Session
	var revokedAt, endedAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, token).Scan(
		&sess.ID, &sess.UserUID, &sess.Token, &sess.RefreshHash,
		&sess.UserAgent, &sess.IPAddress,
		&sess.CreatedAt, &sess.ExpiresAt, &revokedAt, &endedAt,
		&sess.UserDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revokedAt.Valid {
		sess.RevokedAt = &revokedAt.Time
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// MarkSessionEnded проставляет ended_at истёкшей сессии.
// Повторный вызов ничего не меняет и возвращает false.
func (s *Storage) MarkSessionEnded(ctx context.Context, token string, now time.Time) (bool, error) {
	const op = "storage.MarkSessionEnded"

	result, err := s.DB.ExecContext(ctx,
		`UPDATE user_sessions SET ended_at = $1
		 WHERE session_token = $2 AND ended_at IS NULL AND revoked_at IS NULL`, now, token)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rows > 0, nil
}

// RevokeSession отзывает активную сессию. Уже отозванная, истёкшая или
// несуществующая сессия не меняется, это не ошибка и результат nil.
// Возвращает идентификаторы сессии, если отзыв произошёл этим вызовом.
func (s *Storage) RevokeSession(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	const op = "storage.RevokeSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var revoked models.Session
	err := s.DB.QueryRowContext(ctx,
		`UPDATE user_sessions SET revoked_at = $1
		 WHERE session_token = $2 AND revoked_at IS NULL AND ended_at IS NULL AND expires_at > $1
		 RETURNING id, user_uid, session_token, created_at, expires_at`,
		now, token).Scan(&revoked.ID, &revoked.UserUID, &revoked.Token, &revoked.CreatedAt, &revoked.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	revoked.RevokedAt = &now
	return &revoked, nil
}

// ExtendSession сдвигает expires_at живой сессии.
func (s *Storage) ExtendSession(ctx context.Context, token string, expiresAt, now time.Time) (bool, error) {
	const op = "storage.ExtendSession"

	result, err := s.DB.ExecContext(ctx,
		`UPDATE user_sessions SET expires_at = $1
		 WHERE session_token = $2 AND revoked_at IS NULL AND ended_at IS NULL AND expires_at > $3`,
		expiresAt, token, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rows > 0, nil
}

// CountUserSessions возвращает число сессий пользователя в любом состоянии.
func (s *Storage) CountUserSessions(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountUserSessions"
	if uuid.Validate(userUID) != nil {
		return 0, nil
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_sessions WHERE user_uid = $1`, userUID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
