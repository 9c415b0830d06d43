// Package models содержит доменные модели пользователя, его профиля,
// тарифного плана и пользовательской сессии.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role роль пользователя в админке.
type Role string

const (
	// RoleAdmin полный доступ, включая управление пользователями.
	RoleAdmin Role = "admin"
	// RoleOperator доступ к дашборду без управления пользователями.
	RoleOperator Role = "operator"
)

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID           string          // Уникальный идентификатор пользователя
	Email          string          // Электронная почта, уникальна без учёта регистра
	PasswordHash   string          // Хэш пароля пользователя
	Role           Role            // Роль пользователя, admin или operator
	Balance        decimal.Decimal // Баланс, два знака после запятой
	SubscriptionID *int64          // Тарифный план, nil если не назначен
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time // Мягкое удаление, nil пока пользователь активен
}

// Active сообщает, что пользователь не удалён мягко.
func (u *User) Active() bool {
	return u.DeletedAt == nil
}

// UserSummary краткие данные о пользователе, которые отдаются клиенту.
type UserSummary struct {
	UserUID   string `json:"userUid"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"sessionId"`
}

// UserProfile расширение пользователя контактными данными (один к одному).
type UserProfile struct {
	ID          int64
	UserUID     string
	FirstName   *string
	LastName    *string
	ExternalID  *int64 // Глобально уникальный внешний идентификатор
	PhoneNumber *string
	Country     *string
	City        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}
