package me

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
)

type WhoAmIMock struct {
	mock.Mock
}

func (m *WhoAmIMock) WhoAmI(ctx context.Context, accessToken string) (*models.UserSummary, error) {
	args := m.Called(ctx, accessToken)
	resp, _ := args.Get(0).(*models.UserSummary)
	return resp, args.Error(1)
}

func TestMeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		mockResp   *models.UserSummary
		mockErr    error
		call       bool
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "valid token",
			header:     "Bearer acc",
			call:       true,
			mockResp:   &models.UserSummary{UserUID: "uid", Email: "a@example.com", Role: models.RoleAdmin, SessionID: "sess"},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"userUid": "uid", "email": "a@example.com", "role": "admin", "sessionId": "sess"},
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"status": "Error", "error": "Unauthenticated"},
		},
		{
			name:       "revoked session",
			header:     "Bearer acc",
			call:       true,
			mockErr:    fmt.Errorf("%w: %w", auth.ErrUnauthenticated, session.ErrSessionRevoked),
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"status": "Error", "error": "Unauthenticated"},
		},
		{
			name:       "internal",
			header:     "Bearer acc",
			call:       true,
			mockErr:    errors.New("db"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"status": "Error", "error": "InternalError"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(WhoAmIMock)
			if tt.call {
				svc.On("WhoAmI", mock.Anything, "acc").Return(tt.mockResp, tt.mockErr).Once()
			}
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
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
