// Package deactivate реализует мягкое удаление пользователя.
package deactivate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Service описывает мягкое удаление.
type Service interface {
	Deactivate(ctx context.Context, userUID string) error
}

// Handler обрабатывает POST /v1/users/{uid}/deactivate.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Деактивация пользователя
// @Description Помечает пользователя удалённым и отзывает все его живые сессии.
// @Tags Users
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 204 "Пользователь деактивирован"
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Router /v1/users/{uid}/deactivate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.deactivate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	err := h.service.Deactivate(r.Context(), uid)
	if errors.Is(err, users.ErrUserNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	}
	if err != nil {
		log.Error("failed to deactivate user", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
