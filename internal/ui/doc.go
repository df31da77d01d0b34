// Package ui is molar's Bubble Tea interface.
//
// # Screens
//
// The scan screen follows the session view: Camera, Loading, Review and
// Results. H switches to the scans saved during this run and L to molar's own
// log file. esc returns to the scan screen.
//
// # Event Flow
//
//  1. Run builds the Model and starts the program.
//  2. A UI tick refreshes the store snapshot (camera heartbeat, saved scans)
//     and, when following, the log tail.
//  3. Key presses start capture or analysis cycles. Each network step is a
//     tea.Cmd that returns a message tagged with the session generation.
//  4. Update applies results to the session. Results from an older generation
//     are dropped, so starting a new scan discards whatever was in flight.
//
// Capture polling is driven by tea.Tick: after the capture delay a pollMsg
// triggers one check, and a "not ready" answer schedules the next one. The
// session counts checks and gives up once the configured budget is spent.
//
// # Preview
//
// Captures are drawn with upper half blocks, two pixels per cell, and
// prediction boxes are rasterised on top with annotate.NewGrid in the theme's
// class colors.
package ui
