package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/state"
)

const (
	defaultDeviceInterval = 30 * time.Second
	maxBackoff            = 2 * time.Minute
)

// deviceSource is the slice of the dashboard API the poller needs.
type deviceSource interface {
	DeviceStatus(ctx context.Context) (dashboard.DeviceStatus, error)
}

// StartPoller launches a background goroutine that records the camera
// heartbeat in the store. Consecutive failures back off exponentially.
// It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source deviceSource, interval time.Duration, log logrus.FieldLogger) {
	if interval <= 0 {
		interval = defaultDeviceInterval
	}
	go func() {
		failures := 0
		for {
			if refresh(ctx, store, source, log) {
				failures = 0
			} else {
				failures++
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// refresh polls once and reports whether the dashboard answered.
func refresh(ctx context.Context, store *state.Store, source deviceSource, log logrus.FieldLogger) bool {
	status, err := source.DeviceStatus(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		store.UpdateDevice(nil, err)
		log.WithError(err).Warn("device status poll failed")
		return false
	}
	store.UpdateDevice(&status, nil)
	return true
}

// calculateBackoff doubles the interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	d := interval
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
