// Package logout реализует завершение сессии.
package logout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
)

// Request завершаемая сессия.
type Request struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
}

// Service описывает операцию выхода.
type Service interface {
	Logout(ctx context.Context, sessionID string) error
}

// Handler обрабатывает запросы выхода.
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
// @Summary Выход
// @Description Отзывает сессию. Повторный выход и неизвестная сессия не ошибка.
// @Tags Auth
// @Accept  json
// @Param request body Request true "Сессия"
// @Success 204 "Сессия завершена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "InternalError"
// @Router /v1/auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Logout(r.Context(), req.SessionID); err != nil {
		log.Error("logout failed", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
