package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the indexing pipeline.
type Metrics struct {
	RecordsSaved  *prometheus.CounterVec
	MergesApplied prometheus.Counter
	MissingRefs   prometheus.Counter
	ItemsIngested prometheus.Counter
	SearchQueries prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all metrics on the given registry. Tests use
// this with a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_records_saved_total",
			Help: "Total number of records saved, by record type",
		}, []string{"type"}),
		MergesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "earshot_merges_applied_total",
			Help: "Total number of merge patches applied to records",
		}),
		MissingRefs: factory.NewCounter(prometheus.CounterOpts{
			Name: "earshot_missing_refs_total",
			Help: "Total number of references that failed to resolve",
		}),
		ItemsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "earshot_feed_items_ingested_total",
			Help: "Total number of feed items turned into records",
		}),
		SearchQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "earshot_search_queries_total",
			Help: "Total number of search queries served",
		}),
	}
}

// RecordSaved increments the saved counter for a record type.
func (m *Metrics) RecordSaved(typ string) {
	m.RecordsSaved.WithLabelValues(typ).Inc()
}

// MergeApplied increments the merge counter.
func (m *Metrics) MergeApplied() {
	m.MergesApplied.Inc()
}

// MissingRef adds n failed reference resolutions.
func (m *Metrics) MissingRef(n int) {
	m.MissingRefs.Add(float64(n))
}

// ItemIngested increments the ingestion counter.
func (m *Metrics) ItemIngested() {
	m.ItemsIngested.Inc()
}

// SearchQuery increments the search counter.
func (m *Metrics) SearchQuery() {
	m.SearchQueries.Inc()
}
