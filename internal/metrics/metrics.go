// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gptenrich/internal/enrich"
)

// Recorder implements enrich.Recorder.
type Recorder struct {
	rowsTotal    *prometheus.CounterVec
	rowErrors    *prometheus.CounterVec
	retriesTotal prometheus.Counter
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runRows      prometheus.Histogram
}

var _ enrich.Recorder = (*Recorder)(nil)

// NewRecorder registers the metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		rowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrich_rows_total",
			Help: "Total number of rows processed",
		}, []string{"outcome"}),
		rowErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrich_row_errors_total",
			Help: "Total number of failed rows by error type",
		}, []string{"error_type"}),
		retriesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "enrich_row_retries_total",
			Help: "Total number of row function retries",
		}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrich_runs_total",
			Help: "Total number of runs by error handling mode and status",
		}, []string{"mode", "status"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enrich_run_duration_seconds",
			Help:    "Run wall time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"mode"}),
		runRows: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrich_run_rows",
			Help:    "Number of input rows per run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

func (r *Recorder) RowCompleted(success bool, kind string) {
	if success {
		r.rowsTotal.WithLabelValues("success").Inc()
		return
	}
	r.rowsTotal.WithLabelValues("failure").Inc()
	r.rowErrors.WithLabelValues(kind).Inc()
}

func (r *Recorder) RowRetried() {
	r.retriesTotal.Inc()
}

func (r *Recorder) RunCompleted(mode enrich.ErrorHandling, rows int, elapsed time.Duration, err error) {
	status := "completed"
	if err != nil {
		status = "aborted"
	}
	r.runsTotal.WithLabelValues(string(mode), status).Inc()
	r.runDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	r.runRows.Observe(float64(rows))
}
