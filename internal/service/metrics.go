package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meterforecast/backend/internal/domain"
)

var (
	// predictionsTotal counts predictions by outcome
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterforecast_predictions_total",
		Help: "Total predictions by outcome",
	}, []string{"outcome"})

	// predictionDuration tracks end-to-end pipeline latency
	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meterforecast_prediction_duration_seconds",
		Help:    "Prediction pipeline duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
	})

	// windowsBuilt tracks how many windows each request produced
	windowsBuilt = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meterforecast_prediction_windows",
		Help:    "Windows built per prediction",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Outcome classifies an error by kind for metrics and responses
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, domain.ErrInputFormat):
		return "input_format"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration"
	default:
		return "error"
	}
}

func observePrediction(err error, elapsed time.Duration) {
	predictionsTotal.WithLabelValues(Outcome(err)).Inc()
	predictionDuration.Observe(elapsed.Seconds())
}
