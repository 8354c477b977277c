package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the import pipeline.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	SessionsStarted        prometheus.Counter
	SessionsFinished       *prometheus.CounterVec
	RowsTransformed        *prometheus.CounterVec
	DuplicateCheckDuration prometheus.Histogram
	DuplicateCheckFailures prometheus.Counter
	CommitBatches          *prometheus.CounterVec
	RecordsInserted        prometheus.Counter
	RecordsSkipped         prometheus.Counter
}

// NewMetrics registers the import metrics with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "eleitores_import_sessions_started_total",
			Help: "Total number of import sessions created from an uploaded file",
		}),
		SessionsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eleitores_import_sessions_finished_total",
			Help: "Total number of import sessions ended, by outcome",
		}, []string{"outcome"}),
		RowsTransformed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eleitores_import_rows_total",
			Help: "Rows transformed during preview, by review status",
		}, []string{"status"}),
		DuplicateCheckDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "eleitores_duplicate_check_duration_seconds",
			Help:    "Duration of the batched duplicate lookup",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		DuplicateCheckFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "eleitores_duplicate_check_failures_total",
			Help: "Duplicate lookups that failed and were treated as no matches",
		}),
		CommitBatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eleitores_commit_batches_total",
			Help: "Commit gateway calls, by result",
		}, []string{"result"}),
		RecordsInserted: f.NewCounter(prometheus.CounterOpts{
			Name: "eleitores_records_inserted_total",
			Help: "Records persisted by the commit gateway",
		}),
		RecordsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "eleitores_records_skipped_total",
			Help: "Records sent to the store but skipped on conflict",
		}),
	}
}

// IncSessionStarted records a new import session.
func (m *Metrics) IncSessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// IncSessionFinished records a session ending with outcome
// ("committed", "cancelled" or "expired").
func (m *Metrics) IncSessionFinished(outcome string) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(outcome).Inc()
}

// ObserveRows records the review counters of a preview.
func (m *Metrics) ObserveRows(c SessionCounts) {
	if m == nil {
		return
	}
	m.RowsTransformed.WithLabelValues("ready").Add(float64(c.Ready))
	m.RowsTransformed.WithLabelValues("duplicate").Add(float64(c.Duplicates))
	m.RowsTransformed.WithLabelValues("invalid").Add(float64(c.Invalid))
}

// ObserveDuplicateCheck records the duration and outcome of a lookup.
// Call with time.Now() taken at the start of the lookup.
func (m *Metrics) ObserveDuplicateCheck(start time.Time, err error) {
	if m == nil {
		return
	}
	m.DuplicateCheckDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.DuplicateCheckFailures.Inc()
	}
}

// ObserveCommit records one gateway call.
func (m *Metrics) ObserveCommit(sent, inserted int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CommitBatches.WithLabelValues("error").Inc()
		return
	}
	m.CommitBatches.WithLabelValues("ok").Inc()
	m.RecordsInserted.Add(float64(inserted))
	m.RecordsSkipped.Add(float64(sent - inserted))
}
