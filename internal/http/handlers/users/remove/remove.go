// Package remove реализует удаление пользователя вместе с профилем и сессиями.
package remove

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

// Service описывает каскадное удаление.
type Service interface {
	Delete(ctx context.Context, userUID string) error
}

// Handler обрабатывает DELETE /v1/users/{uid}.
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
// @Summary Удаление пользователя
// @Description Удаляет пользователя, его профиль и все сессии одной транзакцией.
// @Tags Users
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 204 "Пользователь удалён"
// @Failure 404 {object} response.ErrorResponse "NotFound"
// @Router /v1/users/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	err := h.service.Delete(r.Context(), uid)
	if errors.Is(err, users.ErrUserNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeNotFound)
		return
	}
	if err != nil {
		log.Error("failed to delete user", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}

	log.Info("user deleted", slog.String("user_uid", uid))
	w.WriteHeader(http.StatusNoContent)
}
