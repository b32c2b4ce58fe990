package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsBatchesAndRows(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveRow("edited", "success", "")
	c.ObserveRow("added", "error", "record duplicate")
	c.ObserveRow("added", "error", "record duplicate")
	c.ObserveBatch(OutcomeCommitted, 3, 10*time.Millisecond)
	c.ObserveBatch(OutcomeFailed, 1, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches.WithLabelValues(OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.rows.WithLabelValues("added", "error", "record duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rows.WithLabelValues("edited", "success", "")))

	count, err := testutil.GatherAndCount(reg, "drawing_batch_rows", "drawing_batch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCollectorRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	require.Error(t, err)
}

func TestCollectorWithoutRegistry(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	c.ObserveBatch(OutcomeCommitted, 0, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches.WithLabelValues(OutcomeCommitted)))
}
