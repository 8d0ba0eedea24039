package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "violence_analyses_total",
		Help: "Total number of video analyses, by outcome",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "violence_analysis_duration_seconds",
		Help:    "Duration of video analyses, by outcome",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"status"})

	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "violence_inference_duration_seconds",
		Help:    "Duration of a single window classification",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	FramesConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "violence_frames_consumed_total",
		Help: "Total number of decoded input frames across all analyses",
	})

	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "violence_predictions_total",
		Help: "Total number of window predictions, by verdict",
	}, []string{"verdict"})

	ActiveAnalyses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "violence_active_analyses",
		Help: "Number of analyses currently running",
	})
)
