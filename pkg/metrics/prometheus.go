package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	probeQueries   *prometheus.CounterVec
	probeWindow    *prometheus.GaugeVec
	jobPolls       *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	reportDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		probeQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_probe_queries_total",
				Help: "Total number of window queries issued per signal",
			},
			[]string{"signal"},
		),
		probeWindow: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_probe_found_window_minutes",
				Help: "Smallest window (minutes) in which the last probe found activity",
			},
			[]string{"signal"},
		),
		jobPolls: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_job_polls",
				Help:    "Number of status polls needed per job",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 60},
			},
			[]string{"job"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		reportDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketpulse_report_duration_seconds",
				Help:    "Wall-clock duration of a full report build",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
	}
}

// RecordProbeQuery records one window query for a signal.
func (r *Recorder) RecordProbeQuery(signal string) {
	r.probeQueries.WithLabelValues(signal).Inc()
}

// RecordProbeWindow records the window in which activity was found.
func (r *Recorder) RecordProbeWindow(signal string, minutes int) {
	r.probeWindow.WithLabelValues(signal).Set(float64(minutes))
}

// RecordJobPolls records how many polls a job needed to finish.
func (r *Recorder) RecordJobPolls(job string, polls int) {
	r.jobPolls.WithLabelValues(job).Observe(float64(polls))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordReportDuration records report build latency in seconds.
func (r *Recorder) RecordReportDuration(seconds float64) {
	r.reportDuration.Observe(seconds)
}
