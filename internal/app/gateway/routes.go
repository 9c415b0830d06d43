// Package gateway собирает шлюз аутентификации: HTTP API, gRPC-сервис
// проверки сессий и их зависимости.
package gateway

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/health"
	plancreate "github.com/magabrotheeeer/admin-sessions/internal/http/handlers/plans/create"
	planget "github.com/magabrotheeeer/admin-sessions/internal/http/handlers/plans/get"
	planremove "github.com/magabrotheeeer/admin-sessions/internal/http/handlers/plans/remove"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/users/assignplan"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/users/create"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/users/deactivate"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/users/getprofile"
	"github.com/magabrotheeeer/admin-sessions/internal/http/handlers/users/saveprofile"
	userremove "github.com/magabrotheeeer/admin-sessions/internal/http/handlers/users/remove"
	"github.com/magabrotheeeer/admin-sessions/internal/http/middlewarectx"
	"github.com/magabrotheeeer/admin-sessions/internal/metrics"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

// AuthService операции шлюза аутентификации.
type AuthService interface {
	login.Service
	refresh.Service
	logout.Service
	me.Service
}

// AdminService операции администрирования пользователей и планов.
type AdminService interface {
	create.Service
	deactivate.Service
	userremove.Service
	assignplan.Service
	saveprofile.Service
	getprofile.Service
	plancreate.Service
	planget.Service
	planremove.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Auth     AuthService
	Admin    AdminService
	DB       health.Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Limiters *middlewarectx.ClientLimiters
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.RequestMetrics(deps.Metrics),
	)

	r.Route("/v1", func(r chi.Router) {
		if deps.Limiters != nil {
			r.Use(middlewarectx.RateLimitMiddleware(deps.Limiters, deps.Metrics, logger))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", login.New(logger, deps.Auth).ServeHTTP)
			r.Post("/refresh", refresh.New(logger, deps.Auth).ServeHTTP)
			r.Post("/logout", logout.New(logger, deps.Auth).ServeHTTP)
			r.Get("/me", me.New(logger, deps.Auth).ServeHTTP)
		})

		// Администрирование
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AuthMiddleware(deps.Auth, logger))
			r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
			r.Post("/users", create.New(logger, deps.Admin).ServeHTTP)
			r.Post("/users/{uid}/deactivate", deactivate.New(logger, deps.Admin).ServeHTTP)
			r.Delete("/users/{uid}", userremove.New(logger, deps.Admin).ServeHTTP)
			r.Put("/users/{uid}/plan", assignplan.New(logger, deps.Admin).ServeHTTP)
			r.Put("/users/{uid}/profile", saveprofile.New(logger, deps.Admin).ServeHTTP)
			r.Get("/users/{uid}/profile", getprofile.New(logger, deps.Admin).ServeHTTP)
			r.Post("/plans", plancreate.New(logger, deps.Admin).ServeHTTP)
			r.Get("/plans/{id}", planget.New(logger, deps.Admin).ServeHTTP)
			r.Delete("/plans/{id}", planremove.New(logger, deps.Admin).ServeHTTP)
		})
	})

	r.Get("/healthz", health.New(logger, deps.DB).ServeHTTP)
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
