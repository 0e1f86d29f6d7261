package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Audit and auth
	AuditEntriesWritten *prometheus.CounterVec
	AuthFailures        *prometheus.CounterVec
	CredentialCacheHits prometheus.Counter

	// Document QA
	RAGQueries       *prometheus.CounterVec
	RAGQueryLatency  prometheus.Histogram
	RAGSyncDocuments *prometheus.CounterVec
	RAGIndexedFiles  prometheus.Gauge

	// Remote dependencies
	BreakerState *prometheus.GaugeVec
}

// New creates all application metrics and registers them on reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AuditEntriesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_written_total",
			Help:      "Total number of audit log entries appended",
		}, []string{"action", "target_table"}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected credentials",
		}, []string{"scheme"}),
		CredentialCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_credential_cache_hits_total",
			Help:      "Total number of credential checks answered from cache",
		}),

		RAGQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "Total number of document QA queries",
		}, []string{"status"}),
		RAGQueryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "query_duration_seconds",
			Help:      "Time spent answering document QA queries",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		RAGSyncDocuments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "sync_files_total",
			Help:      "Files processed by index syncs, by outcome",
		}, []string{"outcome"}),
		RAGIndexedFiles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "indexed_files",
			Help:      "Number of files currently tracked in the index manifest",
		}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
	}
}
