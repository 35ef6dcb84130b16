package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics holds the collectors for the sync pipeline. A fresh Registry is
// provided per process so tests can register in isolation.
type Metrics struct {
	RecordsIngested prometheus.Counter
	RecordsExpired  prometheus.Counter
	UpstreamErrors  prometheus.Counter
	QuotaCooldowns  prometheus.Counter
	CycleFailures   *prometheus.CounterVec
	CycleDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_records_ingested_total",
			Help: "Friendly-match records appended to the store.",
		}),
		RecordsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_records_expired_total",
			Help: "Records purged by the retention sweeper.",
		}),
		UpstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_upstream_errors_total",
			Help: "Per-player battlelog fetches that failed and were skipped.",
		}),
		QuotaCooldowns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_store_quota_cooldowns_total",
			Help: "Write-quota cooldowns taken by the store adapter.",
		}),
		CycleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_cycle_failures_total",
			Help: "Failed scheduler cycles.",
		}, []string{"cycle"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_cycle_duration_seconds",
			Help:    "Duration of reconcile and sweep cycles.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"cycle"}),
	}

	reg.MustRegister(
		m.RecordsIngested,
		m.RecordsExpired,
		m.UpstreamErrors,
		m.QuotaCooldowns,
		m.CycleFailures,
		m.CycleDuration,
	)
	return m
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(func(reg *prometheus.Registry) prometheus.Registerer { return reg }),
	fx.Provide(New),
)
