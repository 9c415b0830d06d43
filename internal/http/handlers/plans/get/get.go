// Package get реализует чтение тарифного плана.
package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Response тарифный план. Стоимость передаётся строкой без потери точности.
type Response struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Level       string    `json:"level"`
	MonthlyCost string    `json:"monthlyCost" example:"9.99"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Service interface {
	GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
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
// @Summary Тарифный план
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID плана"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "InvalidRequest"
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Router /v1/plans/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Info("invalid id format")
		response.WriteError(w, r, http.StatusBadRequest, response.CodeInvalidRequest)
		return
	}

	plan, err := h.service.GetPlan(r.Context(), id)
	if errors.Is(err, users.ErrPlanNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	}
	if err != nil {
		log.Error("failed to get plan", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}

	render.JSON(w, r, Response{
		ID:          plan.ID,
		Name:        plan.Name,
		Level:       plan.Level,
		MonthlyCost: plan.MonthlyCost.StringFixed(2),
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	})
}
