// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Price Prediction Metrics
	PricePredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_predictions_total",
			Help: "Total number of price predictions by outcome",
		},
		[]string{"outcome"}, // "ok", "invalid_input", "unavailable", "error"
	)

	PricePredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_prediction_duration_seconds",
			Help:    "Time spent transforming a request and evaluating the forest",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		},
	)

	PricePredictionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_prediction_cache_hits_total",
			Help: "Total number of prediction cache hits",
		},
	)

	PricePredictionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_prediction_cache_misses_total",
			Help: "Total number of prediction cache misses",
		},
	)

	PriceModelState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_model_state",
			Help: "Inference service state (0=unloaded, 1=loading, 2=ready, 3=failed)",
		},
	)

	PriceModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_model_version",
			Help: "Version of the price model currently serving",
		},
	)

	PriceModelReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_model_reloads_total",
			Help: "Total number of price model load attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	PriceModelTrainingMAE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_model_training_mae",
			Help: "Held-out mean absolute error of the serving model",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures count",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Marketplace Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total registration and login attempts",
		},
		[]string{"operation", "result"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	OrderValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_value",
			Help:    "Order totals in rupees",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000},
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPrediction records the outcome of one prediction call. duration is
// only observed for calls that reached the model.
func RecordPrediction(outcome string, duration time.Duration) {
	PricePredictions.WithLabelValues(outcome).Inc()
	if duration > 0 {
		PricePredictionDuration.Observe(duration.Seconds())
	}
}

// RecordPredictionCache counts a prediction cache lookup.
func RecordPredictionCache(hit bool) {
	if hit {
		PricePredictionCacheHits.Inc()
	} else {
		PricePredictionCacheMisses.Inc()
	}
}

// RecordModelLoad records a load attempt. version and mae are only applied on
// success.
func RecordModelLoad(err error, version int, mae float64) {
	if err != nil {
		PriceModelReloads.WithLabelValues("failure").Inc()
		return
	}
	PriceModelReloads.WithLabelValues("success").Inc()
	PriceModelVersion.Set(float64(version))
	PriceModelTrainingMAE.Set(mae)
}

// RecordAuthAttempt counts a register or login attempt.
func RecordAuthAttempt(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	AuthAttempts.WithLabelValues(operation, result).Inc()
}

// RecordOrder counts a placed order and observes its total.
func RecordOrder(total float64) {
	OrdersCreated.Inc()
	OrderValue.Observe(total)
}
