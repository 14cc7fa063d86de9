package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictionsTotal    *prometheus.CounterVec
	invariantViolations *prometheus.CounterVec
	valueBetsTotal      *prometheus.CounterVec
	optimizerFitsTotal  *prometheus.CounterVec
	cacheEventsTotal    *prometheus.CounterVec
	batchDuration       prometheus.Histogram
	driftBrier          *prometheus.GaugeVec
	driftLogLoss        *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bilyoner_predictions_total",
				Help: "Total number of predictions generated",
			},
			[]string{"league"},
		),
		invariantViolations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bilyoner_invariant_violations_total",
				Help: "Predictions discarded because a probability partition did not sum to 1",
			},
			[]string{"league"},
		),
		valueBetsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bilyoner_value_bets_total",
				Help: "Total number of value bets flagged",
			},
			[]string{"tier"},
		),
		optimizerFitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bilyoner_optimizer_fits_total",
				Help: "Calibration refit attempts by outcome",
			},
			[]string{"league", "result"},
		),
		cacheEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bilyoner_cache_events_total",
				Help: "Prediction cache hits and misses",
			},
			[]string{"result"},
		),
		batchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bilyoner_batch_duration_seconds",
				Help:    "Duration of daily analysis batches in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		driftBrier: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bilyoner_backtest_brier",
				Help: "Mean Brier score of the latest settlement pass",
			},
			[]string{"league"},
		),
		driftLogLoss: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bilyoner_backtest_log_loss",
				Help: "Mean log-loss of the latest settlement pass",
			},
			[]string{"league"},
		),
	}
}

// RecordPrediction counts one generated prediction.
func (r *Recorder) RecordPrediction(leagueID string) {
	r.predictionsTotal.WithLabelValues(leagueID).Inc()
}

// RecordInvariantViolation counts a discarded prediction.
func (r *Recorder) RecordInvariantViolation(leagueID string) {
	r.invariantViolations.WithLabelValues(leagueID).Inc()
}

// RecordValueBet counts one flagged bet by confidence tier.
func (r *Recorder) RecordValueBet(tier string) {
	r.valueBetsTotal.WithLabelValues(tier).Inc()
}

// RecordOptimizerFit counts a refit attempt ("ok", "skipped", "error").
func (r *Recorder) RecordOptimizerFit(leagueID, result string) {
	r.optimizerFitsTotal.WithLabelValues(leagueID, result).Inc()
}

// RecordCacheEvent counts a prediction cache hit or miss.
func (r *Recorder) RecordCacheEvent(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheEventsTotal.WithLabelValues(result).Inc()
}

// RecordBatchDuration records a batch analysis duration in seconds.
func (r *Recorder) RecordBatchDuration(seconds float64) {
	r.batchDuration.Observe(seconds)
}

// RecordDrift records the latest backtest accuracy for a league.
func (r *Recorder) RecordDrift(leagueID string, brier, logLoss float64) {
	r.driftBrier.WithLabelValues(leagueID).Set(brier)
	r.driftLogLoss.WithLabelValues(leagueID).Set(logLoss)
}
