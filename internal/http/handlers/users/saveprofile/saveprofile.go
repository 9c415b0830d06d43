// Package saveprofile реализует заполнение профиля пользователя.
package saveprofile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Request профиль целиком. Отсутствующие поля очищаются.
type Request struct {
	FirstName   *string `json:"firstName" validate:"omitempty,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,max=100"`
	ExternalID  *int64  `json:"externalId" validate:"omitempty,gt=0"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	City        *string `json:"city" validate:"omitempty,max=100"`
}

// Response ID профиля.
type Response struct {
	ID int64 `json:"id"`
}

// Service описывает сохранение профиля.
type Service interface {
	SaveProfile(ctx context.Context, profile models.UserProfile) (int64, error)
}

// Handler обрабатывает PUT /v1/users/{uid}/profile.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сохранение профиля пользователя
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param request body Request true "Профиль"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Failure 409 {object} response.ErrorResponse "Внешний идентификатор занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /v1/users/{uid}/profile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.saveprofile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, response.CodeInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.SaveProfile(r.Context(), models.UserProfile{
		UserUID:     chi.URLParam(r, "uid"),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ExternalID:  req.ExternalID,
		PhoneNumber: req.PhoneNumber,
		Country:     req.Country,
		City:        req.City,
	})
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	case errors.Is(err, users.ErrExternalIDTaken):
		response.WriteError(w, r, http.StatusConflict, response.CodeConflict)
		return
	case err != nil:
		log.Error("failed to save profile", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}

	render.JSON(w, r, Response{ID: id})
}
