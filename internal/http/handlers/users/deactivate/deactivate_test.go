package deactivate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Deactivate(ctx context.Context, userUID string) error {
	return m.Called(ctx, userUID).Error(0)
}

func TestDeactivateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deactivated", wantStatus: http.StatusNoContent},
		{name: "unknown user", err: users.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "storage failure", err: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Deactivate", mock.Anything, "uid-1").Return(tt.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/users/uid-1/deactivate", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uid", "uid-1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
