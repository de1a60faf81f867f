package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by method, route template and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by method and route template.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// MigrationUsers counts legacy users by migration outcome.
	MigrationUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_migration_users_total",
		Help: "Legacy users processed by the user migration, by outcome",
	}, []string{"outcome"})

	// NotificationSockets is the number of open notification websockets.
	NotificationSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blog_notification_websockets",
		Help: "Number of open notification websocket connections",
	})

	// JobRuns counts background job runs by job and result.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_job_runs_total",
		Help: "Background job runs by job name and result",
	}, []string{"job", "result"})
)

const (
	OutcomeMigrated = "migrated"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
