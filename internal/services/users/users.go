// Package users содержит администрирование пользователей и тарифных планов.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/admin-sessions/internal/cache"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/password"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
	"github.com/magabrotheeeer/admin-sessions/internal/storage"
)

var (
	// ErrUserNotFound пользователя нет или он уже деактивирован.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken email занят другим пользователем.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPlanNotFound тарифного плана нет.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrPlanNameTaken план с таким названием уже есть.
	ErrPlanNameTaken = errors.New("subscription plan name taken")
	// ErrInvalidPlan пустое название или отрицательная стоимость плана.
	ErrInvalidPlan = errors.New("invalid subscription plan")
	// ErrInvalidRole роль не admin и не operator.
	ErrInvalidRole = errors.New("invalid role")
	// ErrProfileNotFound профиль пользователя не заполнен.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrExternalIDTaken внешний идентификатор привязан к другому профилю.
	ErrExternalIDTaken = errors.New("external id already linked")
)

// Repository операции хранилища над пользователями и планами.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SoftDeleteUser(ctx context.Context, userUID string, now time.Time) (int64, error)
	AssignPlan(ctx context.Context, userUID string, planID int64) error
	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int64, error)
	GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	DeletePlan(ctx context.Context, id int64) error
	UpsertProfile(ctx context.Context, profile models.UserProfile) (int64, error)
	GetProfile(ctx context.Context, userUID string) (*models.UserProfile, error)
}

// CascadeDeleter удаляет пользователя вместе с зависимыми записями.
type CascadeDeleter interface {
	DeleteUserCascade(ctx context.Context, userUID string) error
}

// Invalidator сбрасывает закэшированные сведения.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Service администрирование пользователей.
type Service struct {
	repo     Repository
	sessions CascadeDeleter
	cache    Invalidator
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт сервис. cache может быть nil.
func New(repo Repository, sessions CascadeDeleter, cache Invalidator, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// Create регистрирует пользователя и возвращает его UID.
func (s *Service) Create(ctx context.Context, email, rawPassword string, role models.Role) (string, error) {
	const op = "users.Create"
	if role == "" {
		role = models.RoleOperator
	}
	if !role.Valid() {
		return "", ErrInvalidRole
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.repo.CreateUser(ctx, models.User{
		Email:        auth.NormalizeEmail(email),
		PasswordHash: hashed,
		Role:         role,
	})
	if errors.Is(err, storage.ErrEmailTaken) {
		return "", ErrEmailTaken
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user created", slog.String("user_uid", uid), slog.String("role", string(role)))
	return uid, nil
}

// Deactivate мягко удаляет пользователя и отзывает его живые сессии.
func (s *Service) Deactivate(ctx context.Context, userUID string) error {
	const op = "users.Deactivate"

	revoked, err := s.repo.SoftDeleteUser(ctx, userUID, s.now().UTC())
	if errors.Is(err, storage.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, userUID)
	s.log.Info("user deactivated", slog.String("user_uid", userUID), slog.Int64("revoked_sessions", revoked))
	return nil
}

// Delete удаляет пользователя, его профиль и все сессии.
func (s *Service) Delete(ctx context.Context, userUID string) error {
	const op = "users.Delete"

	err := s.sessions.DeleteUserCascade(ctx, userUID)
	if errors.Is(err, session.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, userUID)
	return nil
}

// CreatePlan сохраняет тарифный план. Стоимость округляется до копеек.
func (s *Service) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int64, error) {
	const op = "users.CreatePlan"
	plan.Name = strings.TrimSpace(plan.Name)
	if plan.Name == "" || plan.MonthlyCost.IsNegative() {
		return 0, ErrInvalidPlan
	}
	plan.MonthlyCost = plan.MonthlyCost.Round(2)

	id, err := s.repo.CreatePlan(ctx, plan)
	if errors.Is(err, storage.ErrPlanNameTaken) {
		return 0, ErrPlanNameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription plan created", slog.Int64("plan_id", id), slog.String("name", plan.Name))
	return id, nil
}

// GetPlan возвращает тарифный план.
func (s *Service) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	const op = "users.GetPlan"

	plan, err := s.repo.GetPlan(ctx, id)
	if errors.Is(err, storage.ErrPlanNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// AssignPlan назначает активному пользователю тарифный план.
func (s *Service) AssignPlan(ctx context.Context, userUID string, planID int64) error {
	const op = "users.AssignPlan"

	err := s.repo.AssignPlan(ctx, userUID, planID)
	switch {
	case errors.Is(err, storage.ErrPlanNotFound):
		return ErrPlanNotFound
	case errors.Is(err, storage.ErrUserNotFound):
		return ErrUserNotFound
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, userUID)
	s.log.Info("subscription plan assigned", slog.String("user_uid", userUID), slog.Int64("plan_id", planID))
	return nil
}

// SaveProfile создаёт или обновляет профиль активного пользователя.
func (s *Service) SaveProfile(ctx context.Context, profile models.UserProfile) (int64, error) {
	const op = "users.SaveProfile"

	id, err := s.repo.UpsertProfile(ctx, profile)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		return 0, ErrUserNotFound
	case errors.Is(err, storage.ErrExternalIDTaken):
		return 0, ErrExternalIDTaken
	case err != nil:
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetProfile возвращает профиль пользователя, в том числе помеченный удалённым.
func (s *Service) GetProfile(ctx context.Context, userUID string) (*models.UserProfile, error) {
	const op = "users.GetProfile"

	profile, err := s.repo.GetProfile(ctx, userUID)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profile, nil
}

// DeletePlan удаляет тарифный план, ссылки пользователей обнуляются.
func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	const op = "users.DeletePlan"

	err := s.repo.DeletePlan(ctx, id)
	if errors.Is(err, storage.ErrPlanNotFound) {
		return ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription plan deleted", slog.Int64("plan_id", id))
	return nil
}

// EnsureAdmin создаёт администратора с заданным email, если такого пользователя нет.
// Возвращает true, если пользователь создан.
func (s *Service) EnsureAdmin(ctx context.Context, email, rawPassword string) (bool, error) {
	const op = "users.EnsureAdmin"
	if email == "" || rawPassword == "" {
		return false, nil
	}

	_, err := s.repo.GetUserByEmail(ctx, auth.NormalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.Create(ctx, email, rawPassword, models.RoleAdmin); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (s *Service) invalidate(ctx context.Context, userUID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.UserKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate user cache", slog.String("user_uid", userUID), sl.Err(err))
	}
}
