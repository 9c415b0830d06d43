// Package create реализует создание тарифного плана.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Request новый тарифный план. Стоимость принимается строкой или числом.
type Request struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Level       string          `json:"level" validate:"required,max=50"`
	MonthlyCost decimal.Decimal `json:"monthlyCost" swaggertype:"string" example:"9.99"`
}

// Response ID созданного плана.
type Response struct {
	ID int64 `json:"id"`
}

// Service описывает создание плана.
type Service interface {
	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int64, error)
}

// Handler обрабатывает POST /v1/plans.
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
// @Summary Создание тарифного плана
// @Tags Plans
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Новый план"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Conflict"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /v1/plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.create"

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

	id, err := h.service.CreatePlan(r.Context(), models.SubscriptionPlan{
		Name:        req.Name,
		Level:       req.Level,
		MonthlyCost: req.MonthlyCost,
	})
	switch {
	case errors.Is(err, users.ErrPlanNameTaken):
		response.WriteError(w, r, http.StatusConflict, response.CodeConflict)
		return
	case errors.Is(err, users.ErrInvalidPlan):
		response.WriteError(w, r, http.StatusUnprocessableEntity, response.CodeInvalidRequest)
		return
	case err != nil:
		log.Error("failed to create plan", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{ID: id})
}
