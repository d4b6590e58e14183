package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the generate/insert/query pipeline.
type Metrics struct {
	RecordsGenerated prometheus.Counter
	BatchesCommitted prometheus.Counter
	RowsInserted     prometheus.Counter
	BatchDuration    prometheus.Histogram
	QueryDuration    *prometheus.HistogramVec
}

// New registers the pipeline collectors on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RecordsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "personnel_records_generated_total",
			Help: "Total number of synthetic records generated",
		}),
		BatchesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "personnel_batches_committed_total",
			Help: "Total number of insert chunks committed",
		}),
		RowsInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "personnel_rows_inserted_total",
			Help: "Total number of rows persisted by bulk insert",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "personnel_batch_duration_seconds",
			Help:    "Duration of a single insert chunk",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personnel_query_duration_seconds",
			Help:    "Duration of the filtered employee query by stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
	}
}

func (m *Metrics) AddGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsGenerated.Add(float64(n))
}

// ObserveBatch records one committed chunk of rows rows.
// Call with time.Now() at the start of the chunk write.
func (m *Metrics) ObserveBatch(start time.Time, rows int) {
	if m == nil {
		return
	}
	m.BatchesCommitted.Inc()
	m.RowsInserted.Add(float64(rows))
	m.BatchDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveQuery(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
