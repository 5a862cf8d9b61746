package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline's Prometheus collectors
type Metrics struct {
	FramesTotal        prometheus.Counter
	StableTotal        prometheus.Counter
	MovesTotal         *prometheus.CounterVec
	UnrecognizedTotal  *prometheus.CounterVec
	EmissionsTotal     prometheus.Counter
	DuplicatesTotal    prometheus.Counter
	ClassifyErrors     prometheus.Counter
	ClassifyDuration   prometheus.Histogram
	QueueDepth         prometheus.Gauge
	AdvisoryRejections prometheus.Counter
}

// NewMetrics registers the collectors with reg. A nil reg creates
// unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "fentrack_frames_total",
			Help: "Frames offered to the stability gate",
		}),
		StableTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "fentrack_stable_frames_total",
			Help: "Frames admitted as settled",
		}),
		MovesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fentrack_moves_total",
			Help: "Accepted moves by shape",
		}, []string{"shape"}),
		UnrecognizedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fentrack_unrecognized_diffs_total",
			Help: "Board changes that matched no known move shape",
		}, []string{"reason"}),
		EmissionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "fentrack_emissions_total",
			Help: "FEN strings emitted",
		}),
		DuplicatesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "fentrack_duplicate_fens_total",
			Help: "FEN strings suppressed as identical to the previous one",
		}),
		ClassifyErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "fentrack_classify_errors_total",
			Help: "Frames the classifier failed to read",
		}),
		ClassifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fentrack_classify_duration_seconds",
			Help:    "Time spent classifying one frame",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "fentrack_observation_queue_depth",
			Help: "Observations waiting for the session",
		}),
		AdvisoryRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "fentrack_advisory_rejections_total",
			Help: "Emitted positions the legality check disagreed with",
		}),
	}
}
