// Package app is the composition root for molar.
//
// # Overview
//
// It loads configuration and preferences, opens the log, logs in to the
// dashboard when credentials are configured, and hands the wired scan
// workflow and report exporter to either the TUI or the headless runner.
//
// # Components
//
//   - app.go: Options, Run and the shared setup
//   - headless.go: single scan (or -latest export) without the TUI
//   - poller.go: background camera heartbeat polling
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         Read molar config
//	       ├─────> prefs.Load()          Theme, renderer, export format
//	       ├─────> logging.New()         JSON file log
//	       ├─────> dashboard.NewClient() Cookie-backed HTTP client
//	       ├─────> scan.NewWorkflow()    Capture, poll, analyze
//	       ├─────> StartPoller()         Camera heartbeat
//	       └─────> ui.Run()              Start TUI (blocks)
//
// # Polling Behavior
//
// The poller asks the dashboard for the camera heartbeat every
// DeviceStatusInterval (default 30 seconds). Consecutive failures double the
// wait up to two minutes; the first success resets it. Cancelled requests
// are not counted as failures.
//
// # Error Handling
//
// Config, prefs, logging and login failures are returned from Run and
// RunHeadless. Once the TUI is up, network failures surface as alerts and
// log entries and never end the program.
package app
