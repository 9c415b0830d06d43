package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan тарифный план. Удаление плана обнуляет ссылку у пользователей.
type SubscriptionPlan struct {
	ID          int64
	Name        string
	Level       string
	MonthlyCost decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
