package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UploadDuration   prometheus.Histogram
	UploadQueueDepth prometheus.Gauge
	AuditEvents      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTesting registers metrics on a private registry so parallel tests do
// not collide on the default registerer.
func NewForTesting() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "courtbridge_upstream_requests_total",
			Help: "Upstream police registry calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "courtbridge_upload_duration_seconds",
			Help:    "End-to-end duration of fetch-decode-store upload jobs",
			Buckets: prometheus.DefBuckets,
		}),
		UploadQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "courtbridge_upload_queue_depth",
			Help: "Number of upload jobs waiting for the serializer worker",
		}),
		AuditEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "courtbridge_audit_events_total",
			Help: "Audit events emitted for escalated upstream failures",
		}),
	}
}

// ObserveUpstream records one upstream call outcome.
func (m *Metrics) ObserveUpstream(operation, outcome string) {
	m.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
}
