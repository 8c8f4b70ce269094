package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_calls_active",
		Help: "Currently tracked call sessions",
	})

	CallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_calls_total",
		Help: "Total calls tracked",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0, 15.0},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})

	Webhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_webhooks_total",
		Help: "Webhook deliveries by endpoint",
	}, []string{"endpoint"})

	SummariesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_summary_mail_total",
		Help: "Post-call summary emails delivered",
	})
)
