package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AddGenerated(10)
	m.AddGenerated(0)
	m.ObserveBatch(time.Now(), 4)
	m.ObserveBatch(time.Now(), 2)
	m.ObserveQuery("query", 15*time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.RecordsGenerated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchesCommitted))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.RowsInserted))
	assert.Equal(t, 1, testutil.CollectAndCount(m.QueryDuration))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddGenerated(1)
		m.ObserveBatch(time.Now(), 1)
		m.ObserveQuery("query", time.Millisecond)
	})
}
