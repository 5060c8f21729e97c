// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package metrics provides Prometheus metrics for the KisaanConnect server.

All collectors are registered on the default registry through promauto and
exposed at /metrics:

	curl http://localhost:8000/metrics

# Available Metrics

HTTP:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

Database:
  - duckdb_query_duration_seconds{operation,table}
  - duckdb_query_errors_total{operation,table,error_type}

Price prediction:
  - price_predictions_total{outcome}
  - price_prediction_duration_seconds
  - price_prediction_cache_hits_total, price_prediction_cache_misses_total
  - price_model_state (0 unloaded, 1 loading, 2 ready, 3 failed)
  - price_model_version
  - price_model_reloads_total{result}
  - price_model_training_mae

Circuit breakers:
  - circuit_breaker_state{name} (0 closed, 1 half-open, 2 open)
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_transitions_total{name,from,to}

Marketplace:
  - auth_attempts_total{operation,result}
  - orders_created_total
  - order_value (histogram of order totals)
*/
package metrics
