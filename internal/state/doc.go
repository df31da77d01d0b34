// Package state provides thread-safe state shared between molar's background
// device poller and the UI.
//
// # Overview
//
// The scan session itself is owned by the UI model and never lives here. The
// Store only holds data written from outside the Update loop: the camera
// heartbeat polled from /api/pi-status and the list of scans saved during this
// run.
//
// # Architecture
//
//	Producer (poller):              Consumer (UI):
//	┌──────────────────────┐       ┌──────────────────┐
//	│ client.DeviceStatus()│       │                  │
//	│         ↓            │       │                  │
//	│ store.UpdateDevice() │──────→│ store.Snapshot() │
//	│         ↓            │(mutex)│        ↓         │
//	│     repeat...        │       │ render header    │
//	└──────────────────────┘       └──────────────────┘
//
// # Core Types
//
// Store:
//   - sync.RWMutex guarded container
//   - UpdateDevice from the poller, AddScan/RemoveScan from UI commands
//
// Snapshot:
//   - Returned by value with the scan slice and error copied
//   - DeviceLabel renders "Camera: Connected", "Camera: Not Connected" or
//     "Camera: Status Unknown"
//
// # Error Handling
//
// A failed poll keeps the last known device status, records LastError and
// increments ConsecutiveFailures. Two failures in a row mark the dashboard
// offline. The next success clears both.
//
// # Usage
//
//	store := &state.Store{}
//	status, err := client.DeviceStatus(ctx)
//	if err != nil {
//		store.UpdateDevice(nil, err)
//	} else {
//		store.UpdateDevice(&status, nil)
//	}
//	header := store.Snapshot().DeviceLabel()
package state
