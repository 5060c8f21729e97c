// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

type fakeSource struct {
	mu      sync.Mutex
	version int
	err     error
}

func (f *fakeSource) LatestVersion() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, f.err
}

// fakeReloader loads whatever version the source reports unless failing.
type fakeReloader struct {
	mu      sync.Mutex
	source  *fakeSource
	loaded  int
	fail    bool
	reloads int
}

func (f *fakeReloader) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	if f.fail {
		return errors.New("corrupt artifact")
	}
	v, _ := f.source.LatestVersion()
	f.loaded = v
	return nil
}

func (f *fakeReloader) Health() pricing.Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	return pricing.Health{ModelLoaded: f.loaded > 0, Version: f.loaded}
}

func (f *fakeReloader) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

func newReloadFixture(cfg ModelReloadConfig) (*fakeSource, *fakeReloader, *ModelReloadService) {
	src := &fakeSource{}
	rl := &fakeReloader{source: src}
	return src, rl, NewModelReloadService(src, rl, cfg, logging.NewTestLogger(io.Discard))
}

func TestModelReloadService_Check(t *testing.T) {
	src, rl, svc := newReloadFixture(ModelReloadConfig{})
	ctx := context.Background()

	if svc.Check(ctx) {
		t.Error("reloaded with no artifact on disk")
	}

	src.version = 1
	if !svc.Check(ctx) || rl.loaded != 1 {
		t.Errorf("first artifact not loaded: loaded=%d", rl.loaded)
	}
	if svc.Check(ctx) {
		t.Error("reloaded although the serving version is current")
	}

	src.version = 2
	if !svc.Check(ctx) || rl.loaded != 2 {
		t.Errorf("new version not loaded: loaded=%d", rl.loaded)
	}

	src.err = errors.New("permission denied")
	if svc.Check(ctx) {
		t.Error("reloaded despite scan error")
	}
}

func TestModelReloadService_BreakerOpens(t *testing.T) {
	src, rl, svc := newReloadFixture(ModelReloadConfig{MaxConsecutiveFailures: 2, OpenTimeout: time.Hour})
	ctx := context.Background()
	src.version = 3
	rl.fail = true

	svc.Check(ctx)
	svc.Check(ctx)
	if svc.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("breaker = %v, want open", svc.BreakerState())
	}

	for i := 0; i < 5; i++ {
		if svc.Check(ctx) {
			t.Error("reload attempted while breaker open")
		}
	}
	if got := rl.reloadCount(); got != 2 {
		t.Errorf("reloads = %d, want 2", got)
	}
}

func TestModelReloadService_Serve(t *testing.T) {
	src, rl, svc := newReloadFixture(ModelReloadConfig{Interval: 10 * time.Millisecond})
	src.version = 1

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v", err)
	}
	if rl.Health().Version != 1 || rl.reloadCount() != 1 {
		t.Errorf("loaded=%d reloads=%d, want one reload to v1", rl.Health().Version, rl.reloadCount())
	}
}
