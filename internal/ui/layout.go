package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSideBySideWidth is the minimum width to show the preview next to the results.
	LayoutSideBySideWidth = 120

	// PreviewMinCols is the narrowest useful image preview.
	PreviewMinCols = 16
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines read from the file.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// LogRefreshDebounce is the minimum time between log refreshes.
	LogRefreshDebounce = 400 * time.Millisecond

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
