// Package refresh реализует выдачу нового access-токена по сессии и refresh-материалу.
package refresh

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
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
)

// Request сессия и её refresh-материал.
type Request struct {
	SessionID       string `json:"sessionId" validate:"required,max=128"`
	RefreshMaterial string `json:"refreshMaterial" validate:"required,max=256"`
}

// Response новый access-токен.
type Response struct {
	AccessToken      string `json:"accessToken"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// Service описывает операцию обновления.
type Service interface {
	Refresh(ctx context.Context, sessionID, refreshMaterial string) (*auth.RefreshResult, error)
}

// Handler обрабатывает запросы обновления access-токена.
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
// @Summary Обновление access-токена
// @Description Проверяет сессию и refresh-материал и выдаёт новый access-токен. Несовпадение материала отзывает сессию.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Сессия"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "SessionExpired или SessionRevoked"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "InternalError"
// @Router /v1/auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

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

	res, err := h.service.Refresh(r.Context(), req.SessionID, req.RefreshMaterial)
	if err != nil {
		if code := auth.Code(err); code != "" {
			log.Info("refresh rejected", slog.String("code", code))
			response.WriteError(w, r, http.StatusUnauthorized, code)
			return
		}
		log.Error("refresh failed", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}

	render.JSON(w, r, Response{
		AccessToken:      res.AccessToken,
		ExpiresInSeconds: res.ExpiresInSeconds,
	})
}
