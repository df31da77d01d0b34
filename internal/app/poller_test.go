package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/logging"
	"github.com/five82/molar/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures capped", 2, 2 * time.Minute},
		{"many failures capped", 10, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff || got <= 0 {
			t.Errorf("calculateBackoff(%d, %v) = %v, outside (0, %v]", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeDevice struct {
	status dashboard.DeviceStatus
	err    error
}

func (f fakeDevice) DeviceStatus(context.Context) (dashboard.DeviceStatus, error) {
	return f.status, f.err
}

func TestRefresh_RecordsStatus(t *testing.T) {
	store := &state.Store{}
	ok := refresh(context.Background(), store, fakeDevice{status: dashboard.DeviceStatus{Connected: true}}, logging.Discard())
	if !ok {
		t.Fatal("refresh() = false, want true")
	}
	snap := store.Snapshot()
	if snap.DeviceLabel() != "Camera: Connected" {
		t.Fatalf("DeviceLabel() = %q", snap.DeviceLabel())
	}
}

func TestRefresh_RecordsFailures(t *testing.T) {
	store := &state.Store{}
	source := fakeDevice{err: errors.New("connection refused")}
	for i := 0; i < 2; i++ {
		if refresh(context.Background(), store, source, logging.Discard()) {
			t.Fatal("refresh() = true, want false")
		}
	}
	snap := store.Snapshot()
	if !snap.IsOffline() {
		t.Fatalf("IsOffline() = false after %d failures", snap.ConsecutiveFailures)
	}
	if snap.DeviceLabel() != "Camera: Status Unknown" {
		t.Fatalf("DeviceLabel() = %q", snap.DeviceLabel())
	}
}

func TestRefresh_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &state.Store{}
	refresh(ctx, store, fakeDevice{err: context.Canceled}, logging.Discard())
	if store.Snapshot().ConsecutiveFailures != 0 {
		t.Fatal("cancelled poll should not count as a failure")
	}
}
