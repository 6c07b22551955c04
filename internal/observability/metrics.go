package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbridge_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DocstoreLatency records document store call latency by backend, operation and collection.
	DocstoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heartbridge_docstore_latency_seconds",
		Help:    "Document store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation", "collection"})

	// DocstoreErrors counts failed document store calls. Not-found results are not counted.
	DocstoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbridge_docstore_errors_total",
		Help: "Total number of failed document store calls",
	}, []string{"backend", "operation", "collection"})

	// MalformedDocuments counts stored documents rejected by schema decoding.
	MalformedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbridge_malformed_documents_total",
		Help: "Total number of stored documents that failed schema validation",
	}, []string{"collection"})

	// CacheResults counts cache-aside lookups by key kind and outcome.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbridge_cache_results_total",
		Help: "Cache-aside lookups by kind and result (hit, miss, error)",
	}, []string{"kind", "result"})

	// DomainEvents counts published domain events by type.
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbridge_domain_events_total",
		Help: "Total number of published domain events",
	}, []string{"event_type"})

	// ModerationVerdicts counts moderation results by severity and approval.
	ModerationVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbridge_moderation_verdicts_total",
		Help: "Moderation verdicts by severity and approval",
	}, []string{"severity", "approved"})

	// ActiveWebSockets tracks open event stream connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "heartbridge_active_websockets",
		Help: "Number of open event stream connections",
	})
)

// TrackDocstore returns a function that records the latency of a store call when called (e.g. defer).
func TrackDocstore(backend, operation, collection string) func() {
	start := time.Now()
	return func() {
		DocstoreLatency.WithLabelValues(backend, operation, collection).Observe(time.Since(start).Seconds())
	}
}
