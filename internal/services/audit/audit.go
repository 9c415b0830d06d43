// Package audit ведёт журнал событий жизненного цикла сессий из RabbitMQ.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/metrics"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

// Journal пишет события в структурированный лог.
type Journal struct {
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New создаёт журнал. m может быть nil.
func New(log *slog.Logger, m *metrics.Metrics) *Journal {
	return &Journal{log: log, metrics: m}
}

// Handle обрабатывает одно сообщение. Нечитаемое сообщение пропускается,
// повторная доставка его не исправит.
func (j *Journal) Handle(d amqp.Delivery) error {
	const op = "audit.Handle"

	var event models.SessionEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		j.log.Error("dropping malformed event", slog.String("op", op), slog.String("routing_key", d.RoutingKey), sl.Err(err))
		return nil
	}
	if event.Type == "" {
		event.Type = d.RoutingKey
	}
	if err := j.record(event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (j *Journal) record(event models.SessionEvent) error {
	attrs := []any{
		slog.String("type", event.Type),
		slog.String("user_uid", event.UserUID),
		slog.Time("occurred_at", event.OccurredAt),
	}
	switch event.Type {
	case models.EventSessionCreated, models.EventSessionRevoked, models.EventSessionExpired:
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	case models.EventUserDeleted:
		attrs = append(attrs, slog.Int64("sessions", event.Sessions))
	default:
		j.log.Warn("unknown event type", attrs...)
		return nil
	}
	j.log.Info("session event", attrs...)
	j.metrics.AuditEvent(event.Type)
	return nil
}
