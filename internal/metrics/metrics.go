// Package metrics provides the centralized Prometheus metrics registry for the pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rebound_edge",
		Name:      "predictions_total",
		Help:      "Total number of predictions produced",
	})
	EdgesFlaggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rebound_edge",
		Name:      "edges_flagged_total",
		Help:      "Total number of quotes flagged as bettable edges",
	})
	PlayerFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rebound_edge",
		Name:      "player_failures_total",
		Help:      "Total number of per-player failures inside batch runs",
	})
	QuotesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rebound_edge",
		Name:      "quotes_ingested_total",
		Help:      "Total number of market quotes ingested",
	})
	ObservationsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rebound_edge",
		Name:      "observations_ingested_total",
		Help:      "Total number of game observations ingested",
	})
	BatchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rebound_edge",
		Name:      "batch_runs_total",
		Help:      "Total number of batch runs by completion status",
	}, []string{"status"})
)

// Gauge metrics
var (
	ActiveArtifactAgeDays = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rebound_edge",
		Name:      "active_artifact_age_days",
		Help:      "Age of the active model artifact in days",
	})
	BatchPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rebound_edge",
		Name:      "batch_players",
		Help:      "Number of players in the most recent batch run",
	})
)

// Histogram metrics
var (
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rebound_edge",
		Name:      "batch_duration_seconds",
		Help:      "Duration of valuation batch runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	PredictLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rebound_edge",
		Name:      "predict_latency_seconds",
		Help:      "Latency of single-player prediction in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(EdgesFlaggedTotal)
		registry.MustRegister(PlayerFailuresTotal)
		registry.MustRegister(QuotesIngestedTotal)
		registry.MustRegister(ObservationsIngestedTotal)
		registry.MustRegister(BatchRunsTotal)

		registry.MustRegister(ActiveArtifactAgeDays)
		registry.MustRegister(BatchPlayers)

		registry.MustRegister(BatchDuration)
		registry.MustRegister(PredictLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a completed prediction and its latency.
func RecordPrediction(durationSeconds float64) {
	PredictionsTotal.Inc()
	PredictLatency.Observe(durationSeconds)
}

// RecordEdgeFlagged records a quote flagged as a bettable edge.
func RecordEdgeFlagged() {
	EdgesFlaggedTotal.Inc()
}

// RecordPlayerFailure records a per-player failure inside a batch run.
func RecordPlayerFailure() {
	PlayerFailuresTotal.Inc()
}

// RecordQuoteIngested records an ingested market quote.
func RecordQuoteIngested() {
	QuotesIngestedTotal.Inc()
}

// RecordObservationsIngested records a number of ingested game observations.
func RecordObservationsIngested(count int) {
	ObservationsIngestedTotal.Add(float64(count))
}

// RecordBatchRun records a completed batch run.
func RecordBatchRun(status string, players int, durationSeconds float64) {
	BatchRunsTotal.WithLabelValues(status).Inc()
	BatchPlayers.Set(float64(players))
	BatchDuration.Observe(durationSeconds)
}

// UpdateArtifactAge updates the active artifact age gauge.
func UpdateArtifactAge(days float64) {
	ActiveArtifactAgeDays.Set(days)
}
