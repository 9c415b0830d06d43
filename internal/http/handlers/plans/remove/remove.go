// Package remove реализует удаление тарифного плана.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	DeletePlan(ctx context.Context, id int64) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление тарифного плана
// @Description Пользователи плана остаются, ссылка на план обнуляется.
// @Tags Plans
// @Security BearerAuth
// @Param id path int true "ID плана"
// @Success 204 "План удалён"
// @Failure 400 {object} response.ErrorResponse "InvalidRequest"
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Router /v1/plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.remove"

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

	err = h.service.DeletePlan(r.Context(), id)
	if errors.Is(err, users.ErrPlanNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	}
	if err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
