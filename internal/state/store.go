package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/molar/internal/dashboard"
)

// DeviceState summarises the camera heartbeat for display.
type DeviceState int

const (
	DeviceUnknown DeviceState = iota
	DeviceConnected
	DeviceDisconnected
)

// SavedScan is a scan stored on the dashboard during this run.
type SavedScan struct {
	ID       string
	Filename string
	Status   string
	SavedAt  time.Time
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Device              dashboard.DeviceStatus
	HasDevice           bool
	Scans               []SavedScan
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the dashboard has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// DeviceState folds the last poll into connected, disconnected or unknown.
func (s Snapshot) DeviceState() DeviceState {
	if s.LastError != nil || !s.HasDevice {
		return DeviceUnknown
	}
	if s.Device.Connected {
		return DeviceConnected
	}
	return DeviceDisconnected
}

// DeviceLabel is the header text for the camera indicator.
func (s Snapshot) DeviceLabel() string {
	switch s.DeviceState() {
	case DeviceConnected:
		return "Camera: Connected"
	case DeviceDisconnected:
		return "Camera: Not Connected"
	default:
		return "Camera: Status Unknown"
	}
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// UpdateDevice records a device poll. When err is non-nil the previous status is
// kept but the error is recorded for visibility.
func (s *Store) UpdateDevice(status *dashboard.DeviceStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if status != nil {
		s.snapshot.Device = *status
		s.snapshot.HasDevice = true
	} else {
		s.snapshot.HasDevice = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// AddScan records a newly saved scan at the front of the history.
func (s *Store) AddScan(scan SavedScan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scan.SavedAt.IsZero() {
		scan.SavedAt = time.Now()
	}
	s.snapshot.Scans = append([]SavedScan{scan}, s.snapshot.Scans...)
}

// RemoveScan drops a scan from the history. It reports whether one was removed.
func (s *Store) RemoveScan(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, scan := range s.snapshot.Scans {
		if scan.ID == id {
			s.snapshot.Scans = append(s.snapshot.Scans[:i:i], s.snapshot.Scans[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Scans = cloneScans(s.snapshot.Scans)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneScans(items []SavedScan) []SavedScan {
	if len(items) == 0 {
		return nil
	}
	dup := make([]SavedScan, len(items))
	copy(dup, items)
	return dup
}
