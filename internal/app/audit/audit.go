// Package audit собирает потребителя журнала аудита сессий.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/admin-sessions/internal/config"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/metrics"
	"github.com/magabrotheeeer/admin-sessions/internal/rabbitmq"
	auditservice "github.com/magabrotheeeer/admin-sessions/internal/services/audit"
)

// App потребитель очередей аудита.
type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	journal *auditservice.Journal
	logger  *slog.Logger
}

// New подключается к брокеру и объявляет очереди аудита.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "audit.New"
	if cfg.RabbitMQURL == "" {
		return nil, errors.New(op + ": rabbitmq url is not configured")
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetAuditQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:    conn,
		ch:      ch,
		journal: auditservice.New(logger, metrics.New(prometheus.DefaultRegisterer)),
		logger:  logger,
	}, nil
}

// Run читает очереди до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetAuditQueues() {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, a.logger, a.journal.Handle); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("audit consumer shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
