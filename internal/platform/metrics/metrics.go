// Package metrics holds all Prometheus metrics for the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's Prometheus collectors. Construct once in main
// and inject where needed; a nil *Metrics disables recording.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec

	ProfileUpdates  *prometheus.CounterVec
	SyncAttempts    *prometheus.CounterVec
	SyncDuration    *prometheus.HistogramVec
	AccountsCreated prometheus.Counter
	AuditPublished  prometheus.Counter
	AuditFailed     prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "donorhub_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path, and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		ProfileUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "donorhub_profile_updates_total",
			Help: "Profile update attempts by outcome",
		}, []string{"outcome"}),
		SyncAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "donorhub_external_sync_total",
			Help: "External system synchronization calls by system and outcome",
		}, []string{"system", "outcome"}),
		SyncDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "donorhub_external_sync_duration_seconds",
			Help:    "Latency of external system address updates",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"system"}),
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "donorhub_accounts_created_total",
			Help: "Total number of donor accounts provisioned",
		}),
		AuditPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "donorhub_audit_events_published_total",
			Help: "Audit events successfully published to Kafka",
		}),
		AuditFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "donorhub_audit_events_failed_total",
			Help: "Audit events that failed to publish",
		}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, path, statusLabel(status)).Observe(d.Seconds())
}

// IncProfileUpdate records one profile update attempt by outcome
// ("ok", "denied", "not_found", "sync_failed", "persist_failed").
func (m *Metrics) IncProfileUpdate(outcome string) {
	if m == nil {
		return
	}
	m.ProfileUpdates.WithLabelValues(outcome).Inc()
}

// ObserveSync records one external synchronization call.
func (m *Metrics) ObserveSync(system string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SyncAttempts.WithLabelValues(system, outcome).Inc()
	m.SyncDuration.WithLabelValues(system).Observe(d.Seconds())
}

// IncAccountsCreated increments the accounts created counter by 1.
func (m *Metrics) IncAccountsCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

// IncAuditPublished increments the published audit event counter by 1.
func (m *Metrics) IncAuditPublished() {
	if m == nil {
		return
	}
	m.AuditPublished.Inc()
}

// IncAuditFailed increments the failed audit event counter by 1.
func (m *Metrics) IncAuditFailed() {
	if m == nil {
		return
	}
	m.AuditFailed.Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
