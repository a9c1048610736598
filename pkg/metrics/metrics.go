// Package metrics provides Prometheus metrics for the reconciliation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IndexLoadsTotal tracks reference index loads by outcome
	IndexLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconcile",
			Subsystem: "index",
			Name:      "loads_total",
			Help:      "Total number of reference index loads by outcome",
		},
		[]string{"outcome"},
	)

	// IndexLoadDuration tracks how long a full index load takes
	IndexLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reconcile",
			Subsystem: "index",
			Name:      "load_duration_seconds",
			Help:      "Duration of reference index loads in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// IndexRecords is the number of records in the index being served
	IndexRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reconcile",
			Subsystem: "index",
			Name:      "records",
			Help:      "Number of canonical records in the served index by kind",
		},
		[]string{"kind"},
	)

	// IndexBuckets is the number of distinct fingerprints in the index being served
	IndexBuckets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reconcile",
			Subsystem: "index",
			Name:      "buckets",
			Help:      "Number of fingerprint buckets in the served index",
		},
	)

	// QueriesTotal tracks ranked queries by outcome (matched, candidates, empty)
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconcile",
			Subsystem: "ranker",
			Name:      "queries_total",
			Help:      "Total number of ranked queries by outcome",
		},
		[]string{"outcome"},
	)

	// CandidatesPerQuery tracks bucket sizes seen by the ranker
	CandidatesPerQuery = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reconcile",
			Subsystem: "ranker",
			Name:      "candidates",
			Help:      "Number of candidates scored per query",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	// BatchesTotal tracks reconcile calls by outcome (results, metadata, malformed, failure)
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconcile",
			Subsystem: "dispatcher",
			Name:      "batches_total",
			Help:      "Total number of reconcile calls by outcome",
		},
		[]string{"outcome"},
	)

	// LookupCacheTotal tracks suggest/flyout cache lookups
	LookupCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconcile",
			Subsystem: "lookup_cache",
			Name:      "requests_total",
			Help:      "Total number of lookup cache requests by kind and result",
		},
		[]string{"kind", "result"},
	)

	// ChangeEventsTotal tracks CDC events received for the name tables
	ChangeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconcile",
			Subsystem: "cdc",
			Name:      "events_total",
			Help:      "Total number of change events by table and operation",
		},
		[]string{"table", "op"},
	)
)
