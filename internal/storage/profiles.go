package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

// ErrExternalIDTaken внешний идентификатор уже привязан к другому профилю.
var ErrExternalIDTaken = errors.New("external id already linked")

// UpsertProfile создаёт или обновляет профиль активного пользователя.
func (s *Storage) UpsertProfile(ctx context.Context, p models.UserProfile) (int64, error) {
	const op = "storage.UpsertProfile"
	if uuid.Validate(p.UserUID) != nil {
		return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	query := `INSERT INTO user_profiles (user_uid, first_name, last_name, external_id, phone_number, country, city)
			  SELECT uid, $2, $3, $4, $5, $6, $7 FROM users WHERE uid = $1 AND deleted_at IS NULL
			  ON CONFLICT ON CONSTRAINT uq_user_profiles_user_uid DO UPDATE
			  SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			      external_id = EXCLUDED.external_id, phone_number = EXCLUDED.phone_number,
			      country = EXCLUDED.country, city = EXCLUDED.city, updated_at = NOW()
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query, p.UserUID, p.FirstName, p.LastName, p.ExternalID,
		p.PhoneNumber, p.Country, p.City).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		if isUniqueViolation(err, "uq_user_profiles_external_id") {
			return 0, fmt.Errorf("%s: %w", op, ErrExternalIDTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetProfile возвращает профиль пользователя.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.UserProfile, error) {
	const op = "storage.GetProfile"
	if uuid.Validate(userUID) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}

	var p models.UserProfile
	var firstName, lastName, phone, country, city sql.NullString
	var externalID sql.NullInt64
	var deletedAt sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_uid, first_name, last_name, external_id, phone_number, country, city,
		        created_at, updated_at, deleted_at
		 FROM user_profiles WHERE user_uid = $1`, userUID).
		Scan(&p.ID, &p.UserUID, &firstName, &lastName, &externalID, &phone, &country, &city,
			&p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.FirstName = stringPtr(firstName)
	p.LastName = stringPtr(lastName)
	p.PhoneNumber = stringPtr(phone)
	p.Country = stringPtr(country)
	p.City = stringPtr(city)
	if externalID.Valid {
		p.ExternalID = &externalID.Int64
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return &p, nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
