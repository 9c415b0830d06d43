package users_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/admin-sessions/internal/lib/password"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
	"github.com/magabrotheeeer/admin-sessions/internal/storage"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) SoftDeleteUser(ctx context.Context, userUID string, now time.Time) (int64, error) {
	args := m.Called(ctx, userUID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) DeletePlan(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RepoMock) AssignPlan(ctx context.Context, userUID string, planID int64) error {
	return m.Called(ctx, userUID, planID).Error(0)
}

func (m *RepoMock) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int64, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) UpsertProfile(ctx context.Context, profile models.UserProfile) (int64, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) GetProfile(ctx context.Context, userUID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type DeleterMock struct {
	mock.Mock
}

func (m *DeleterMock) DeleteUserCascade(ctx context.Context, userUID string) error {
	return m.Called(ctx, userUID).Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newService(repo *RepoMock, del *DeleterMock, c *CacheMock) *users.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c == nil {
		return users.New(repo, del, nil, log)
	}
	return users.New(repo, del, c, log)
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		role       models.Role
		setupMocks func(r *RepoMock)
		wantUID    string
		wantErr    error
	}{
		{
			name:  "normalises email and hashes password",
			email: "  New@Example.COM ",
			role:  models.RoleAdmin,
			setupMocks: func(r *RepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "new@example.com" &&
						u.Role == models.RoleAdmin &&
						password.CompareHash(u.PasswordHash, "secret123") == nil
				})).Return("uid-1", nil).Once()
			},
			wantUID: "uid-1",
		},
		{
			name:  "default role is operator",
			email: "op@example.com",
			setupMocks: func(r *RepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Role == models.RoleOperator
				})).Return("uid-2", nil).Once()
			},
			wantUID: "uid-2",
		},
		{
			name:    "unknown role",
			email:   "x@example.com",
			role:    models.Role("root"),
			wantErr: users.ErrInvalidRole,
		},
		{
			name:  "duplicate email",
			email: "dup@example.com",
			setupMocks: func(r *RepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", fmt.Errorf("storage.CreateUser: %w", storage.ErrEmailTaken)).Once()
			},
			wantErr: users.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}
			svc := newService(repo, new(DeleterMock), nil)

			uid, err := svc.Create(context.Background(), tt.email, "secret123", tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, uid)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Deactivate(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	repo.On("SoftDeleteUser", mock.Anything, "uid-1", mock.Anything).Return(int64(2), nil).Once()
	repo.On("SoftDeleteUser", mock.Anything, "uid-404", mock.Anything).
		Return(int64(0), fmt.Errorf("storage.SoftDeleteUser: %w", storage.ErrUserNotFound)).Once()
	c.On("Invalidate", mock.Anything, "user:uid-1").Return(errors.New("redis down")).Once()

	svc := newService(repo, new(DeleterMock), c)

	assert.NoError(t, svc.Deactivate(context.Background(), "uid-1"), "cache failures are not fatal")
	assert.ErrorIs(t, svc.Deactivate(context.Background(), "uid-404"), users.ErrUserNotFound)

	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	del := new(DeleterMock)
	c := new(CacheMock)
	del.On("DeleteUserCascade", mock.Anything, "uid-1").Return(nil).Once()
	del.On("DeleteUserCascade", mock.Anything, "uid-404").
		Return(fmt.Errorf("session.DeleteUserCascade: %w", session.ErrUserNotFound)).Once()
	del.On("DeleteUserCascade", mock.Anything, "uid-500").Return(errors.New("tx aborted")).Once()
	c.On("Invalidate", mock.Anything, "user:uid-1").Return(nil).Once()

	svc := newService(new(RepoMock), del, c)

	assert.NoError(t, svc.Delete(context.Background(), "uid-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "uid-404"), users.ErrUserNotFound)
	err := svc.Delete(context.Background(), "uid-500")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, users.ErrUserNotFound)

	del.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestService_DeletePlan(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeletePlan", mock.Anything, int64(1)).Return(nil).Once()
	repo.On("DeletePlan", mock.Anything, int64(2)).Return(fmt.Errorf("x: %w", storage.ErrPlanNotFound)).Once()

	svc := newService(repo, new(DeleterMock), nil)

	assert.NoError(t, svc.DeletePlan(context.Background(), 1))
	assert.ErrorIs(t, svc.DeletePlan(context.Background(), 2), users.ErrPlanNotFound)
	repo.AssertExpectations(t)
}

func TestService_CreatePlan(t *testing.T) {
	tests := []struct {
		name       string
		plan       models.SubscriptionPlan
		setupMocks func(r *RepoMock)
		wantID     int64
		wantErr    error
	}{
		{
			name: "стоимость округляется до копеек",
			plan: models.SubscriptionPlan{Name: " pro ", Level: "gold", MonthlyCost: decimal.RequireFromString("9.999")},
			setupMocks: func(r *RepoMock) {
				r.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.SubscriptionPlan) bool {
					return p.Name == "pro" && p.MonthlyCost.Equal(decimal.RequireFromString("10"))
				})).Return(int64(5), nil).Once()
			},
			wantID: 5,
		},
		{
			name:       "пустое название",
			plan:       models.SubscriptionPlan{Name: "  "},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    users.ErrInvalidPlan,
		},
		{
			name:       "отрицательная стоимость",
			plan:       models.SubscriptionPlan{Name: "pro", MonthlyCost: decimal.NewFromInt(-1)},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    users.ErrInvalidPlan,
		},
		{
			name: "название занято",
			plan: models.SubscriptionPlan{Name: "pro"},
			setupMocks: func(r *RepoMock) {
				r.On("CreatePlan", mock.Anything, mock.Anything).
					Return(int64(0), fmt.Errorf("storage.CreatePlan: %w", storage.ErrPlanNameTaken)).Once()
			},
			wantErr: users.ErrPlanNameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			id, err := newService(repo, new(DeleterMock), nil).CreatePlan(context.Background(), tt.plan)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_GetPlan(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetPlan", mock.Anything, int64(1)).Return(&models.SubscriptionPlan{ID: 1, Name: "pro"}, nil).Once()
	repo.On("GetPlan", mock.Anything, int64(2)).Return(nil, fmt.Errorf("x: %w", storage.ErrPlanNotFound)).Once()

	svc := newService(repo, new(DeleterMock), nil)

	plan, err := svc.GetPlan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "pro", plan.Name)
	_, err = svc.GetPlan(context.Background(), 2)
	assert.ErrorIs(t, err, users.ErrPlanNotFound)
	repo.AssertExpectations(t)
}

func TestService_AssignPlan(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	repo.On("AssignPlan", mock.Anything, "uid-1", int64(3)).Return(nil).Once()
	repo.On("AssignPlan", mock.Anything, "uid-1", int64(404)).
		Return(fmt.Errorf("storage.AssignPlan: %w", storage.ErrPlanNotFound)).Once()
	repo.On("AssignPlan", mock.Anything, "uid-404", int64(3)).
		Return(fmt.Errorf("storage.AssignPlan: %w", storage.ErrUserNotFound)).Once()
	c.On("Invalidate", mock.Anything, "user:uid-1").Return(nil).Once()

	svc := newService(repo, new(DeleterMock), c)

	assert.NoError(t, svc.AssignPlan(context.Background(), "uid-1", 3))
	assert.ErrorIs(t, svc.AssignPlan(context.Background(), "uid-1", 404), users.ErrPlanNotFound)
	assert.ErrorIs(t, svc.AssignPlan(context.Background(), "uid-404", 3), users.ErrUserNotFound)

	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestService_Profile(t *testing.T) {
	extID := int64(7)
	profile := models.UserProfile{UserUID: "uid-1", ExternalID: &extID}

	repo := new(RepoMock)
	repo.On("UpsertProfile", mock.Anything, profile).Return(int64(11), nil).Once()
	repo.On("UpsertProfile", mock.Anything, models.UserProfile{UserUID: "uid-2", ExternalID: &extID}).
		Return(int64(0), fmt.Errorf("x: %w", storage.ErrExternalIDTaken)).Once()
	repo.On("UpsertProfile", mock.Anything, models.UserProfile{UserUID: "uid-404"}).
		Return(int64(0), fmt.Errorf("x: %w", storage.ErrUserNotFound)).Once()
	repo.On("GetProfile", mock.Anything, "uid-1").Return(&profile, nil).Once()
	repo.On("GetProfile", mock.Anything, "uid-3").Return(nil, fmt.Errorf("x: %w", storage.ErrProfileNotFound)).Once()

	svc := newService(repo, new(DeleterMock), nil)

	id, err := svc.SaveProfile(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	_, err = svc.SaveProfile(context.Background(), models.UserProfile{UserUID: "uid-2", ExternalID: &extID})
	assert.ErrorIs(t, err, users.ErrExternalIDTaken)
	_, err = svc.SaveProfile(context.Background(), models.UserProfile{UserUID: "uid-404"})
	assert.ErrorIs(t, err, users.ErrUserNotFound)

	got, err := svc.GetProfile(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, &extID, got.ExternalID)
	_, err = svc.GetProfile(context.Background(), "uid-3")
	assert.ErrorIs(t, err, users.ErrProfileNotFound)

	repo.AssertExpectations(t)
}

func TestService_EnsureAdmin(t *testing.T) {
	t.Run("creates missing admin", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "root@example.com").Return(nil, storage.ErrUserNotFound).Once()
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleAdmin && u.Email == "root@example.com"
		})).Return("uid-admin", nil).Once()

		created, err := newService(repo, new(DeleterMock), nil).EnsureAdmin(context.Background(), "Root@example.com", "pw")
		require.NoError(t, err)
		assert.True(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("keeps existing user", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "root@example.com").Return(&models.User{UUID: "u"}, nil).Once()

		created, err := newService(repo, new(DeleterMock), nil).EnsureAdmin(context.Background(), "root@example.com", "pw")
		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("not configured", func(t *testing.T) {
		created, err := newService(new(RepoMock), new(DeleterMock), nil).EnsureAdmin(context.Background(), "", "")
		require.NoError(t, err)
		assert.False(t, created)
	})
}
