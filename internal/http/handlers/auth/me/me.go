// Package me возвращает пользователя, которому принадлежит access-токен.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/admin-sessions/internal/http/middlewarectx"
	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
)

// Service определяет пользователя по access-токену.
type Service interface {
	WhoAmI(ctx context.Context, accessToken string) (*models.UserSummary, error)
}

// Handler обрабатывает GET /v1/auth/me.
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
// @Summary Текущий пользователь
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.UserSummary
// @Failure 401 {object} response.ErrorResponse "Unauthenticated"
// @Failure 500 {object} response.ErrorResponse "InternalError"
// @Router /v1/auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token, ok := middlewarectx.BearerToken(r)
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, auth.Code(auth.ErrUnauthenticated))
		return
	}

	summary, err := h.service.WhoAmI(r.Context(), token)
	if err != nil {
		if auth.Code(err) != "" {
			log.Info("whoami rejected", sl.Err(err))
			response.WriteError(w, r, http.StatusUnauthorized, auth.Code(auth.ErrUnauthenticated))
			return
		}
		log.Error("whoami failed", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		return
	}
	render.JSON(w, r, summary)
}
