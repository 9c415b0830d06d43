package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/admin-sessions/internal/cache"
	"github.com/magabrotheeeer/admin-sessions/internal/config"
	"github.com/magabrotheeeer/admin-sessions/internal/grpc/server"
	"github.com/magabrotheeeer/admin-sessions/internal/grpc/sessionrpc"
	"github.com/magabrotheeeer/admin-sessions/internal/http/middlewarectx"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/jwt"
	librabbitmq "github.com/magabrotheeeer/admin-sessions/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/metrics"
	"github.com/magabrotheeeer/admin-sessions/internal/migrations"
	"github.com/magabrotheeeer/admin-sessions/internal/rabbitmq"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
	"github.com/magabrotheeeer/admin-sessions/internal/services/users"
	"github.com/magabrotheeeer/admin-sessions/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App шлюз аутентификации.
type App struct {
	server     *http.Server
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
	amqpConn   *amqp.Connection
}

// New поднимает зависимости шлюза. Redis, RabbitMQ и gRPC необязательны:
// пустой адрес отключает соответствующую часть.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "gateway.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}

	var (
		userCache   auth.Cache
		invalidator users.Invalidator
		limiter     auth.Limiter
	)
	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		userCache = app.cache
		invalidator = app.cache
		limiter = cache.NewLoginLimiter(app.cache.DB, cfg.Attempts, cfg.Window, logger)
	} else {
		logger.Warn("redis is not configured, user cache and login limiter disabled")
	}

	var events session.EventPublisher = librabbitmq.Noop{}
	if cfg.RabbitMQURL != "" {
		app.amqpConn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(app.amqpConn, cfg.Exchange, rabbitmq.GetAuditQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = librabbitmq.NewPublisher(ch, cfg.Exchange)
	} else {
		logger.Warn("rabbitmq is not configured, session events are not published")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	sessionService := session.New(db, events, cfg.SessionTTL, logger)
	authService := auth.New(db, sessionService, jwt.NewJWTMaker(cfg.JWTSecretKey), userCache, limiter, m,
		auth.Options{AccessTokenTTL: cfg.AccessTokenTTL, SlidingExpiry: cfg.SlidingExpiry}, logger)
	userService := users.New(db, sessionService, invalidator, logger)

	created, err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if created {
		logger.Info("bootstrap admin created", slog.String("email", auth.NormalizeEmail(cfg.AdminEmail)))
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:     authService,
		Admin:    userService,
		DB:       db,
		Metrics:  m,
		Limiters: middlewarectx.NewClientLimiters(cfg.RPS, cfg.Burst),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.GRPCAddress != "" {
		app.listener, err = net.Listen("tcp", cfg.GRPCAddress)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.grpcServer = grpc.NewServer()
		sessionrpc.RegisterSessionValidatorServer(app.grpcServer, server.NewSessionServer(authService, sessionService, logger))
	}

	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливается.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()
	if a.grpcServer != nil {
		go func() {
			a.logger.Info("session validator gRPC service listening on", slog.String("address", a.listener.Addr().String()))
			errCh <- a.grpcServer.Serve(a.listener)
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}
	a.close()
	return runErr
}

func (a *App) close() {
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.listener != nil && a.grpcServer == nil {
		_ = a.listener.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
