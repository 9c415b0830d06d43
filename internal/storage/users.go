package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

const userColumns = `uid, email, password_hash, role, balance, subscription_id,
			      created_at, updated_at, deleted_at`

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Email сравнивается без учёта регистра, повтор даёт ErrEmailTaken.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, password_hash, role, balance, subscription_id)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, string(user.Role), user.Balance.Round(2), user.SubscriptionID).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, "uq_users_email_lower") {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра,
// в том числе мягко удалённого.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if uuid.Validate(userUID) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var role string
	var subscriptionID sql.NullInt64
	var deletedAt sql.NullTime
	if err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &role, &u.Balance, &subscriptionID,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = models.Role(role)
	if subscriptionID.Valid {
		u.SubscriptionID = &subscriptionID.Int64
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return u, nil
}

// AssignPlan назначает пользователю тарифный план.
func (s *Storage) AssignPlan(ctx context.Context, userUID string, planID int64) error {
	const op = "storage.AssignPlan"
	if uuid.Validate(userUID) != nil {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	query := `UPDATE users SET subscription_id = $1, updated_at = NOW()
			  WHERE uid = $2 AND deleted_at IS NULL`
	result, err := s.DB.ExecContext(ctx, query, planID, userUID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// SoftDeleteUser помечает пользователя и его профиль удалёнными и отзывает
// все живые сессии. Всё выполняется в одной транзакции.
// Возвращает число отозванных сессий.
func (s *Storage) SoftDeleteUser(ctx context.Context, userUID string, now time.Time) (int64, error) {
	const op = "storage.SoftDeleteUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if uuid.Validate(userUID) != nil {
		return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var revoked int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET deleted_at = $1, updated_at = $1
			 WHERE uid = $2 AND deleted_at IS NULL`, now, userUID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrUserNotFound
		}

		if _, err = tx.ExecContext(ctx,
			`UPDATE user_profiles SET deleted_at = $1, updated_at = $1
			 WHERE user_uid = $2 AND deleted_at IS NULL`, now, userUID); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE user_sessions SET revoked_at = $1
			 WHERE user_uid = $2 AND revoked_at IS NULL AND ended_at IS NULL AND expires_at > $1`,
			now, userUID)
		if err != nil {
			return err
		}
		revoked, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return revoked, nil
}

// DeleteUserCascade удаляет пользователя вместе с сессиями и профилем
// в одной транзакции. Если пользователя нет, ничего не удаляется.
// Возвращает число удалённых сессий.
func (s *Storage) DeleteUserCascade(ctx context.Context, userUID string) (int64, error) {
	const op = "storage.DeleteUserCascade"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if uuid.Validate(userUID) != nil {
		return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// блокируем строку пользователя, чтобы параллельный InsertSession дождался коммита
		var uid string
		err := tx.QueryRowContext(ctx, `SELECT uid FROM users WHERE uid = $1 FOR UPDATE`, userUID).Scan(&uid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_uid = $1`, userUID)
		if err != nil {
			return err
		}
		if removed, err = result.RowsAffected(); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_uid = $1`, userUID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return removed, nil
}
