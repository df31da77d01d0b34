// Package scan drives one capture, review and analyze cycle.
//
// Session is a plain value describing where the cycle stands:
//
//	Camera -> Loading(capture) -> Review -> Loading(analyze) -> Results
//	Review  -> Camera   (retake)
//	Results -> Camera   (reset)
//
// A failed capture returns to Camera and a failed analysis returns to Review.
// Reset bumps Generation; async work started under an older generation is
// discarded by the caller via Session.Current.
//
// Workflow performs the dashboard calls. CheckImage and CheckAnalysis make a
// single attempt and return ErrNotReady while the dashboard is still waiting,
// which lets the TUI schedule its own ticks. WaitForImage and WaitForAnalysis
// loop with go-retry for headless use. Both styles stop after MaxAttempts.
package scan
