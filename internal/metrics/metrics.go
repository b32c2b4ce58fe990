// Package metrics exposes prometheus collectors for batch updates.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Batch outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
)

// Collector counts batches and row outcomes. Label values are bounded: row
// states, statuses and the fixed row messages.
type Collector struct {
	batches     *prometheus.CounterVec
	rows        *prometheus.CounterVec
	rowsByBatch prometheus.Histogram
	duration    prometheus.Histogram
}

// NewCollector creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drawing_batches_total",
			Help: "Batch updates by outcome",
		}, []string{"outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drawing_batch_rows_total",
			Help: "Drawing object rows by row state, status and message",
		}, []string{"row_state", "status", "message"}),
		rowsByBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drawing_batch_rows",
			Help:    "Distribution of rows per batch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drawing_batch_duration_seconds",
			Help:    "Time spent applying a batch, including commit",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.batches, c.rows, c.rowsByBatch, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRow counts one row result.
func (c *Collector) ObserveRow(rowState, status, message string) {
	c.rows.WithLabelValues(rowState, status, message).Inc()
}

// ObserveBatch records one finished batch.
func (c *Collector) ObserveBatch(outcome string, rows int, elapsed time.Duration) {
	c.batches.WithLabelValues(outcome).Inc()
	c.rowsByBatch.Observe(float64(rows))
	c.duration.Observe(elapsed.Seconds())
}

// Serve exposes the gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
