// Package metrics содержит счётчики Prometheus шлюза аутентификации.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Metrics набор коллекторов. Нулевой указатель допустим: вызовы ничего не делают.
type Metrics struct {
	authOutcomes   *prometheus.CounterVec
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec
	auditEvents    *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg.
// Уже зарегистрированные коллекторы переиспользуются.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "auth",
			Name:      "outcomes_total",
			Help:      "Results of login, refresh, logout and whoami calls",
		}, []string{"op", "result"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "admin",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
		auditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "audit",
			Name:      "events_total",
			Help:      "Session lifecycle events consumed by the audit journal",
		}, []string{"type"}),
	}

	m.authOutcomes = register(reg, m.authOutcomes)
	m.requestTotal = register(reg, m.requestTotal)
	m.requestLatency = register(reg, m.requestLatency)
	m.rateLimitHits = register(reg, m.rateLimitHits)
	m.auditEvents = register(reg, m.auditEvents)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// Outcome учитывает результат операции op.
func (m *Metrics) Outcome(op, result string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(op, result).Inc()
}

// ObserveRequest учитывает обработанный HTTP-запрос.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(duration.Seconds())
}

// RateLimited учитывает отказ по лимиту частоты.
func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimitHits.WithLabelValues(route).Inc()
}

// AuditEvent учитывает событие, записанное в журнал аудита.
func (m *Metrics) AuditEvent(eventType string) {
	if m == nil {
		return
	}
	m.auditEvents.WithLabelValues(eventType).Inc()
}
