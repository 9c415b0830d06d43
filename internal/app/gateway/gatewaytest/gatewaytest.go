// Package gatewaytest поднимает HTTP API шлюза поверх хранилища в памяти
// с управляемыми часами. Используется в тестах шлюза и клиента.
package gatewaytest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/admin-sessions/internal/app/gateway"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/jwt"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/password"
	"github.com/magabrotheeeer/admin-sessions/internal/metrics"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session/sessiontest"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
)

// Clock часы, которые двигает тест.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now текущее время часов.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы вперёд.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Options параметры сессий тестового шлюза.
type Options struct {
	SessionTTL    time.Duration
	AccessTTL     time.Duration
	SlidingExpiry bool
}

// Env запущенный тестовый шлюз.
type Env struct {
	Server   *httptest.Server
	Store    *sessiontest.Memory
	Events   *sessiontest.Recorder
	Clock    *Clock
	Registry *prometheus.Registry
}

type alwaysUp struct{}

func (alwaysUp) Ping(context.Context) error { return nil }

// New запускает шлюз и останавливает его по завершении теста.
func New(t testing.TB, opts Options) *Env {
	t.Helper()
	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = 15 * time.Minute
	}

	env := &Env{
		Store:    sessiontest.NewMemory(),
		Events:   &sessiontest.Recorder{},
		Clock:    &Clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Registry: prometheus.NewRegistry(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions := session.New(env.Store, env.Events, opts.SessionTTL, log).WithClock(env.Clock.Now)
	m := metrics.New(env.Registry)
	authService := auth.New(env.Store, sessions, jwt.NewJWTMaker("gateway-test-secret").WithClock(env.Clock.Now),
		nil, nil, m, auth.Options{AccessTokenTTL: opts.AccessTTL, SlidingExpiry: opts.SlidingExpiry}, log)
	userService := users.New(env.Store, sessions, nil, log)

	router := chi.NewRouter()
	gateway.RegisterRoutes(router, log, gateway.Deps{
		Auth:     authService,
		Admin:    userService,
		DB:       alwaysUp{},
		Metrics:  m,
		Gatherer: env.Registry,
	})

	env.Server = httptest.NewServer(router)
	t.Cleanup(env.Server.Close)
	return env
}

// AddUser добавляет пользователя с паролем и возвращает его UID.
func (e *Env) AddUser(t testing.TB, uid, email, rawPassword string, role models.Role) string {
	t.Helper()
	hash, err := password.GetHash(rawPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	e.Store.AddUser(models.User{UUID: uid, Email: email, PasswordHash: hash, Role: role})
	return uid
}
