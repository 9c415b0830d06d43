// Package login реализует HTTP-обработчик входа по email и паролю.
//
// При успехе возвращается плоский JSON с access-токеном, refresh-материалом,
// идентификатором сессии и временем жизни access-токена в секундах.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/admin-sessions/internal/http/response"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
)

// Request учётные данные пользователя.
type Request struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// Response тело успешного ответа.
type Response struct {
	AccessToken      string `json:"accessToken"`
	RefreshMaterial  string `json:"refreshMaterial"`
	SessionID        string `json:"sessionId"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// Service описывает операцию входа.
type Service interface {
	Login(ctx context.Context, email, password string, meta session.Meta) (*auth.LoginResult, error)
}

// Handler обрабатывает HTTP-запросы входа.
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
// @Summary Вход в админку
// @Description Проверяет email и пароль, открывает новую сессию и выдаёт access-токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "InvalidCredentials"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "TooManyAttempts"
// @Failure 500 {object} response.ErrorResponse "InternalError"
// @Router /v1/auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	meta := session.Meta{UserAgent: r.UserAgent(), IPAddress: clientIP(r)}
	res, err := h.service.Login(r.Context(), req.Email, req.Password, meta)
	if err != nil {
		var limited *auth.RateLimitError
		switch {
		case errors.As(err, &limited):
			log.Warn("login rate limited")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))
			response.WriteError(w, r, http.StatusTooManyRequests, auth.Code(err))
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Info("invalid credentials")
			response.WriteError(w, r, http.StatusUnauthorized, auth.Code(err))
		default:
			log.Error("login failed", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal)
		}
		return
	}

	log.Info("login success")
	render.JSON(w, r, Response{
		AccessToken:      res.AccessToken,
		RefreshMaterial:  res.RefreshMaterial,
		SessionID:        res.SessionID,
		ExpiresInSeconds: res.ExpiresInSeconds,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
