// Package sessiontest содержит хранилище сессий в памяти для тестов сервисов.
package sessiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/storage"
)

// Memory потокобезопасная реализация session.Repository в памяти.
// Семантика совпадает с storage.Storage: ошибки те же, изменения атомарны.
type Memory struct {
	mu       sync.Mutex
	users    map[string]*models.User
	sessions map[string]*models.Session
	plans    map[int64]*models.SubscriptionPlan
	profiles map[string]*models.UserProfile
	nextID   int64

	// InsertHook вызывается перед вставкой, ненулевая ошибка возвращается вызывающему.
	InsertHook func(models.Session) error
	// MarkEndedErr если задана, MarkSessionEnded возвращает её.
	MarkEndedErr error
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*models.User),
		sessions: make(map[string]*models.Session),
		plans:    make(map[int64]*models.SubscriptionPlan),
		profiles: make(map[string]*models.UserProfile),
	}
}

// AddUser добавляет пользователя.
func (m *Memory) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.users[u.UUID] = &cp
}

// CreateUser сохраняет пользователя с новым UID. Email уникален без учёта регистра.
func (m *Memory) CreateUser(_ context.Context, u models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return "", storage.ErrEmailTaken
		}
	}
	cp := u
	cp.UUID = uuid.NewString()
	m.users[cp.UUID] = &cp
	return cp.UUID, nil
}

// AddPlan добавляет тарифный план с заданным ID.
func (m *Memory) AddPlan(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[id] = &models.SubscriptionPlan{ID: id, Name: fmt.Sprintf("plan-%d", id)}
	if id > m.nextID {
		m.nextID = id
	}
}

// CreatePlan сохраняет план с уникальным названием.
func (m *Memory) CreatePlan(_ context.Context, plan models.SubscriptionPlan) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.Name == plan.Name {
			return 0, storage.ErrPlanNameTaken
		}
	}
	m.nextID++
	now := time.Now().UTC()
	cp := plan
	cp.ID = m.nextID
	cp.MonthlyCost = plan.MonthlyCost.Round(2)
	cp.CreatedAt, cp.UpdatedAt = now, now
	m.plans[cp.ID] = &cp
	return cp.ID, nil
}

// GetPlan возвращает копию плана.
func (m *Memory) GetPlan(_ context.Context, id int64) (*models.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, storage.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

// AssignPlan назначает план активному пользователю.
func (m *Memory) AssignPlan(_ context.Context, userUID string, planID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[planID]; !ok {
		return storage.ErrPlanNotFound
	}
	u, ok := m.users[userUID]
	if !ok || u.DeletedAt != nil {
		return storage.ErrUserNotFound
	}
	id := planID
	u.SubscriptionID = &id
	return nil
}

// UpsertProfile создаёт или обновляет профиль активного пользователя.
// Внешний идентификатор уникален среди всех профилей.
func (m *Memory) UpsertProfile(_ context.Context, p models.UserProfile) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[p.UserUID]
	if !ok || u.DeletedAt != nil {
		return 0, storage.ErrUserNotFound
	}
	if p.ExternalID != nil {
		for uid, other := range m.profiles {
			if uid != p.UserUID && other.ExternalID != nil && *other.ExternalID == *p.ExternalID {
				return 0, storage.ErrExternalIDTaken
			}
		}
	}
	now := time.Now().UTC()
	cp := p
	if existing, ok := m.profiles[p.UserUID]; ok {
		cp.ID, cp.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		m.nextID++
		cp.ID, cp.CreatedAt = m.nextID, now
	}
	cp.UpdatedAt = now
	m.profiles[p.UserUID] = &cp
	return cp.ID, nil
}

// GetProfile возвращает копию профиля.
func (m *Memory) GetProfile(_ context.Context, userUID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userUID]
	if !ok {
		return nil, storage.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// DeletePlan удаляет план и обнуляет ссылки пользователей на него.
func (m *Memory) DeletePlan(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return storage.ErrPlanNotFound
	}
	delete(m.plans, id)
	for _, u := range m.users {
		if u.SubscriptionID != nil && *u.SubscriptionID == id {
			u.SubscriptionID = nil
		}
	}
	return nil
}

// GetUser возвращает копию пользователя, в том числе мягко удалённого.
func (m *Memory) GetUser(_ context.Context, userUID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userUID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail ищет пользователя по email без учёта регистра.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// SoftDeleteUser помечает пользователя удалённым и отзывает его живые сессии.
func (m *Memory) SoftDeleteUser(_ context.Context, userUID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userUID]
	if !ok || u.DeletedAt != nil {
		return 0, storage.ErrUserNotFound
	}
	u.DeletedAt = &now
	if p, ok := m.profiles[userUID]; ok {
		t := now
		p.DeletedAt = &t
	}
	var revoked int64
	for _, s := range m.sessions {
		if s.UserUID == userUID && s.RevokedAt == nil && s.EndedAt == nil && s.ExpiresAt.After(now) {
			t := now
			s.RevokedAt = &t
			revoked++
		}
	}
	return revoked, nil
}

// Session возвращает копию сессии по токену.
func (m *Memory) Session(token string) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return models.Session{}, false
	}
	return *s, true
}

// CountUserSessions число сессий пользователя в любом состоянии.
func (m *Memory) CountUserSessions(_ context.Context, userUID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserUID == userUID {
			n++
		}
	}
	return n, nil
}

// InsertSession сохраняет сессию активного пользователя.
func (m *Memory) InsertSession(_ context.Context, s models.Session) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertHook != nil {
		if err := m.InsertHook(s); err != nil {
			return nil, err
		}
	}
	u, ok := m.users[s.UserUID]
	if !ok || u.DeletedAt != nil {
		return nil, storage.ErrUserNotFound
	}
	if _, exists := m.sessions[s.Token]; exists {
		return nil, storage.ErrSessionConflict
	}
	cp := s
	m.sessions[s.Token] = &cp
	out := cp
	return &out, nil
}

// GetSessionByToken возвращает копию сессии с признаком удаления владельца.
func (m *Memory) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	cp := *s
	if u, ok := m.users[s.UserUID]; ok && u.DeletedAt != nil {
		cp.UserDeleted = true
	}
	return &cp, nil
}

// MarkSessionEnded проставляет ended_at один раз.
func (m *Memory) MarkSessionEnded(_ context.Context, token string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkEndedErr != nil {
		return false, m.MarkEndedErr
	}
	s, ok := m.sessions[token]
	if !ok || s.EndedAt != nil || s.RevokedAt != nil {
		return false, nil
	}
	s.EndedAt = &now
	return true, nil
}

// RevokeSession отзывает живую сессию.
func (m *Memory) RevokeSession(_ context.Context, token string, now time.Time) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || s.RevokedAt != nil || s.EndedAt != nil || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	s.RevokedAt = &now
	cp := *s
	return &cp, nil
}

// ExtendSession сдвигает срок живой сессии.
func (m *Memory) ExtendSession(_ context.Context, token string, expiresAt, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || s.RevokedAt != nil || s.EndedAt != nil || !s.ExpiresAt.After(now) {
		return false, nil
	}
	s.ExpiresAt = expiresAt
	return true, nil
}

// DeleteUserCascade удаляет пользователя и все его сессии.
func (m *Memory) DeleteUserCascade(_ context.Context, userUID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userUID]; !ok {
		return 0, storage.ErrUserNotFound
	}
	var removed int64
	for token, s := range m.sessions {
		if s.UserUID == userUID {
			delete(m.sessions, token)
			removed++
		}
	}
	delete(m.profiles, userUID)
	delete(m.users, userUID)
	return removed, nil
}

// Recorder собирает опубликованные события.
type Recorder struct {
	mu     sync.Mutex
	events []models.SessionEvent
	// Err если задана, возвращается из Publish после записи события.
	Err error
}

// Publish запоминает событие.
func (r *Recorder) Publish(_ context.Context, event models.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Types возвращает типы опубликованных событий по порядку.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
