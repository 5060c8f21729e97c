// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
		wantErrs  float64
	}{
		{name: "successful select", operation: "SELECT", table: "crops"},
		{name: "failed insert", operation: "INSERT", table: "orders", err: errors.New("constraint violation"), wantErrs: 1},
		{
			name:      "long error is truncated",
			operation: "UPDATE",
			table:     "users",
			err:       errors.New(strings.Repeat("x", 80)),
			wantErrs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, tt.table, 5*time.Millisecond, tt.err)
			if tt.err == nil {
				return
			}
			label := tt.err.Error()
			if len(label) > 50 {
				label = label[:50]
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, label))
			if got != tt.wantErrs {
				t.Errorf("error counter = %v, want %v", got, tt.wantErrs)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/price-prediction/predict", "200"))
	RecordAPIRequest("POST", "/api/price-prediction/predict", "200", 2*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/price-prediction/predict", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - start; got != 1 {
		t.Errorf("active requests delta = %v, want 1", got)
	}
	TrackActiveRequest(false)
}

func TestRecordModelLoad(t *testing.T) {
	failures := testutil.ToFloat64(PriceModelReloads.WithLabelValues("failure"))
	RecordModelLoad(errors.New("checksum mismatch"), 0, 0)
	if got := testutil.ToFloat64(PriceModelReloads.WithLabelValues("failure")) - failures; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}

	RecordModelLoad(nil, 7, 12.5)
	if got := testutil.ToFloat64(PriceModelVersion); got != 7 {
		t.Errorf("price_model_version = %v, want 7", got)
	}
	if got := testutil.ToFloat64(PriceModelTrainingMAE); got != 12.5 {
		t.Errorf("price_model_training_mae = %v, want 12.5", got)
	}
}

func TestRecordAuthAttempt(t *testing.T) {
	before := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "failure"))
	RecordAuthAttempt("login", false)
	if got := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "failure")) - before; got != 1 {
		t.Errorf("auth failure delta = %v, want 1", got)
	}
}

func TestRecordOrder(t *testing.T) {
	before := testutil.ToFloat64(OrdersCreated)
	RecordOrder(450)
	if got := testutil.ToFloat64(OrdersCreated) - before; got != 1 {
		t.Errorf("orders_created_total delta = %v, want 1", got)
	}
}
