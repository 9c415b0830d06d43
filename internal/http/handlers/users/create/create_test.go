package create

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, email, password string, role models.Role) (string, error) {
	args := m.Called(ctx, email, password, role)
	return args.String(0), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name: "created with default role",
			body: `{"email":"new@example.com","password":"password123"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "new@example.com", "password123", models.Role("")).Return("uid-1", nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   map[string]any{"uid": "uid-1"},
		},
		{
			name: "duplicate email",
			body: `{"email":"dup@example.com","password":"password123","role":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "dup@example.com", "password123", models.RoleAdmin).Return("", users.ErrEmailTaken)
			},
			wantStatus: http.StatusConflict,
			wantBody:   map[string]any{"status": "Error", "error": "Conflict"},
		},
		{
			name:       "unknown role",
			body:       `{"email":"x@example.com","password":"password123","role":"root"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   map[string]any{"status": "Error", "error": "field Role must be one of: admin operator"},
		},
		{
			name: "storage failure",
			body: `{"email":"x@example.com","password":"password123"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "x@example.com", "password123", models.Role("")).Return("", errors.New("db"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"status": "Error", "error": "InternalError"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
			svc.AssertExpectations(t)
		})
	}
}
