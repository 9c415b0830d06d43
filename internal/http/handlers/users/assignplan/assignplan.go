// Package assignplan реализует назначение пользователю тарифного плана.
package assignplan

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
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Request назначаемый план.
type Request struct {
	PlanID int64 `json:"planId" validate:"required,gt=0"`
}

// Service описывает назначение плана.
type Service interface {
	AssignPlan(ctx context.Context, userUID string, planID int64) error
}

// Handler обрабатывает PUT /v1/users/{uid}/plan.
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
// @Summary Назначение тарифного плана
// @Tags Users
// @Accept  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param request body Request true "План"
// @Success 204 "План назначен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /v1/users/{uid}/plan [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.assignplan"

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

	uid := chi.URLParam(r, "uid")
	err := h.service.AssignPlan(r.Context(), uid, req.PlanID)
	if errors.Is(err, users.ErrUserNotFound) || errors.Is(err, users.ErrPlanNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	}
	if err != nil {
		log.Error("failed to assign plan", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
