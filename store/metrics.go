package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts store operations. A nil *Metrics records nothing.
type Metrics struct {
	recordsWritten   *prometheus.CounterVec
	recordsDeleted   prometheus.Counter
	queries          *prometheus.CounterVec
	reconcileDeleted prometheus.Counter
}

// NewMetrics creates the store counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_records_written_total",
			Help: "Records upserted, by kind (base or attribute).",
		}, []string{"kind"}),
		recordsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_records_deleted_total",
			Help: "Individual records deleted.",
		}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_queries_total",
			Help: "Query requests issued, by index (one per shard).",
		}, []string{"index"}),
		reconcileDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_reconcile_deleted_total",
			Help: "Resources deleted by reconciliation.",
		}),
	}
}

func (m *Metrics) recordWrite(attr string) {
	if m == nil {
		return
	}
	kind := "attribute"
	if attr == BaseResource {
		kind = "base"
	}
	m.recordsWritten.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordDelete() {
	if m == nil {
		return
	}
	m.recordsDeleted.Inc()
}

func (m *Metrics) recordQuery(index Index) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(string(index)).Inc()
}

func (m *Metrics) recordReconcile(deleted int) {
	if m == nil {
		return
	}
	m.reconcileDeleted.Add(float64(deleted))
}
