// Package config handles loading molar's configuration.
//
// # Overview
//
// molar needs to know where the scan dashboard lives, how to log in, and how
// patiently to wait for the camera device. All of it comes from a single TOML
// file with environment overrides layered on top.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/molar/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. Load .env from the working directory, then apply MOLAR_* variables
//  5. Validate the result; invalid values are a startup error
//
// # Default Values
//
//   - Dashboard: http://127.0.0.1:5000
//   - Log directory: ~/.local/share/molar/logs (log file molar.log)
//   - Export directory: ~/.local/share/molar/scans
//   - Capture delay: 3s before the first image poll
//   - Poll interval: 2s between image polls
//   - Max poll attempts: 60 (0 polls until cancelled)
//   - Device status interval: 30s
//
// # TOML Format
//
//	dashboard_url = "http://raspberrypi.local:5000"
//	username = "ada"
//	password = "hunter2"
//	log_level = "debug"
//	display_width = 640
//	capture_delay = "3s"
//	poll_interval = "2s"
//	max_poll_attempts = 60
//	device_status_interval = "30s"
//
// Durations use time.ParseDuration syntax. The password is better supplied
// through MOLAR_PASSWORD or a .env file than committed to the TOML file.
package config
