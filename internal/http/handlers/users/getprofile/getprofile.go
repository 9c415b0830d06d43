// Package getprofile реализует чтение профиля пользователя.
package getprofile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Response профиль. deletedAt заполнен у деактивированных пользователей.
type Response struct {
	ID          int64      `json:"id"`
	UserUID     string     `json:"userUid"`
	FirstName   *string    `json:"firstName,omitempty"`
	LastName    *string    `json:"lastName,omitempty"`
	ExternalID  *int64     `json:"externalId,omitempty"`
	PhoneNumber *string    `json:"phoneNumber,omitempty"`
	Country     *string    `json:"country,omitempty"`
	City        *string    `json:"city,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

type Service interface {
	GetProfile(ctx context.Context, userUID string) (*models.UserProfile, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Профиль пользователя
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} Response
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Router /v1/users/{uid}/profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.getprofile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "uid"))
	if errors.Is(err, users.ErrProfileNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	}
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}

	render.JSON(w, r, Response{
		ID:          p.ID,
		UserUID:     p.UserUID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		ExternalID:  p.ExternalID,
		PhoneNumber: p.PhoneNumber,
		Country:     p.Country,
		City:        p.City,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		DeletedAt:   p.DeletedAt,
	})
}
