package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch Metrics
var (
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_pages_fetched_total",
		Help: "The total number of pages fetched from the source account",
	}, []string{"kind"})

	ItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_items_fetched_total",
		Help: "The total number of records fetched from the source account",
	}, []string{"kind"})

	PageFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "migration_page_fetch_duration_seconds",
		Help:    "Time taken to fetch a single page from the source account",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// Commit Metrics
var (
	BatchesCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_batches_committed_total",
		Help: "The total number of batches committed to the destination account",
	}, []string{"kind"})

	ItemsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_items_committed_total",
		Help: "The total number of records committed to the destination account",
	}, []string{"kind"})

	LastCommittedOffset = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migration_last_committed_offset",
		Help: "The dataset offset up to which records have been committed",
	}, []string{"kind"})

	BatchCommitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "migration_batch_commit_duration_seconds",
		Help:    "Time taken to commit a single batch to the destination account",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"kind"})
)

// Orchestrator Metrics
var (
	MigrationState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "migration_state",
		Help: "The current orchestrator state (0 = start ... 8 = done)",
	})
)
