package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

// CreatePlan сохраняет тарифный план и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int64, error) {
	const op = "storage.CreatePlan"

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO subscription_plans (name, level, monthly_cost) VALUES ($1, $2, $3) RETURNING id`,
		plan.Name, plan.Level, plan.MonthlyCost.Round(2)).Scan(&id)
	if isUniqueViolation(err, "uq_subscription_plans_name") {
		return 0, fmt.Errorf("%s: %w", op, ErrPlanNameTaken)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPlan возвращает тарифный план по ID.
func (s *Storage) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlan"

	var p models.SubscriptionPlan
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, level, monthly_cost, created_at, updated_at FROM subscription_plans WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.Level, &p.MonthlyCost, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// DeletePlan удаляет тарифный план. Ссылки пользователей на него обнуляются
// внешним ключом ON DELETE SET NULL.
func (s *Storage) DeletePlan(ctx context.Context, id int64) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}
	return nil
}
