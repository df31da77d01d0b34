package scan

import (
	"errors"

	"github.com/five82/molar/internal/dashboard"
)

// View is the panel currently on screen.
type View int

const (
	ViewCamera View = iota
	ViewLoading
	ViewReview
	ViewResults
)

func (v View) String() string {
	switch v {
	case ViewCamera:
		return "camera"
	case ViewLoading:
		return "loading"
	case ViewReview:
		return "review"
	case ViewResults:
		return "results"
	default:
		return "unknown"
	}
}

// Phase tells which async cycle a Loading view belongs to.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCapture
	PhaseAnalyze
)

// Loading step indices. Both cycles use three steps.
const (
	StepRequest = 0
	StepWait    = 1
	StepCheck   = 2
)

var (
	captureSteps = [...]string{"Requesting capture...", "Waiting for camera...", "Checking for image..."}
	analyzeSteps = [...]string{"Preparing image...", "Sending for analysis...", "Processing results..."}
)

var (
	// ErrNoImage is returned when analysis is requested before a capture exists.
	ErrNoImage = errors.New("No image available for analysis")
	// ErrBusy is returned when a cycle is already in flight.
	ErrBusy = errors.New("a scan step is already running")
)

// Session is the state of one capture-review-analyze cycle. The UI model owns
// it by value; async results carry the Generation they were started under.
type Session struct {
	View       View
	Phase      Phase
	Step       int
	Filename   string
	RequestID  string
	Image      []byte
	Analysis   *dashboard.Analysis
	ScanID     string
	Message    string
	Attempts   int
	Generation uint64
}

// StepLabels returns the loading labels for the current phase.
func (s Session) StepLabels() []string {
	switch s.Phase {
	case PhaseCapture:
		return captureSteps[:]
	case PhaseAnalyze:
		return analyzeSteps[:]
	default:
		return nil
	}
}

// StepText is the label of the active loading step.
func (s Session) StepText() string {
	labels := s.StepLabels()
	if s.Step < 0 || s.Step >= len(labels) {
		return ""
	}
	return labels[s.Step]
}

// Current reports whether a result started under gen still applies.
func (s Session) Current(gen uint64) bool {
	return s.Generation == gen
}

// Busy reports whether an async cycle is in flight.
func (s Session) Busy() bool {
	return s.View == ViewLoading
}

// BeginCapture enters Loading at the request step.
func (s *Session) BeginCapture() error {
	if s.Busy() {
		return ErrBusy
	}
	s.View = ViewLoading
	s.Phase = PhaseCapture
	s.Step = StepRequest
	s.Filename = ""
	s.RequestID = ""
	s.Image = nil
	s.Analysis = nil
	s.ScanID = ""
	s.Message = ""
	s.Attempts = 0
	return nil
}

// CaptureQueued records the device request id and moves to the wait step.
func (s *Session) CaptureQueued(requestID string) {
	s.RequestID = requestID
	s.Step = StepWait
}

// Polling marks one more check for the captured image.
func (s *Session) Polling() {
	s.Step = StepCheck
	s.Attempts++
}

// PollExhausted reports whether max checks have been spent. Zero means no limit.
func (s Session) PollExhausted(max int) bool {
	return max > 0 && s.Attempts >= max
}

// ImageReady moves to Review with the delivered capture.
func (s *Session) ImageReady(filename string, image []byte) {
	s.View = ViewReview
	s.Phase = PhaseIdle
	s.Step = 0
	s.Filename = filename
	s.Image = image
	s.Message = ""
}

// CaptureFailed returns to Camera with a message.
func (s *Session) CaptureFailed(msg string) {
	s.View = ViewCamera
	s.Phase = PhaseIdle
	s.Step = 0
	s.Message = msg
}

// Retake discards the reviewed capture.
func (s *Session) Retake() {
	if s.View != ViewReview {
		return
	}
	s.View = ViewCamera
	s.Filename = ""
	s.Image = nil
	s.Message = ""
}

// BeginAnalyze enters Loading for the analysis cycle.
func (s *Session) BeginAnalyze() error {
	if s.Busy() {
		return ErrBusy
	}
	if s.Filename == "" {
		return ErrNoImage
	}
	s.View = ViewLoading
	s.Phase = PhaseAnalyze
	s.Step = StepRequest
	s.Message = ""
	return nil
}

// AdvanceAnalyze moves the analysis cycle to step.
func (s *Session) AdvanceAnalyze(step int) {
	if s.Phase == PhaseAnalyze && step > s.Step {
		s.Step = step
	}
}

// AnalysisReady stores the result and shows it.
func (s *Session) AnalysisReady(a dashboard.Analysis) {
	if a.Filename == "" {
		a.Filename = s.Filename
	}
	s.Analysis = &a
	s.View = ViewResults
	s.Phase = PhaseIdle
	s.Step = 0
	s.Message = ""
}

// AnalysisFailed returns to Review with a message.
func (s *Session) AnalysisFailed(msg string) {
	s.View = ViewReview
	s.Phase = PhaseIdle
	s.Step = 0
	s.Message = msg
}

// Saved records the dashboard id of the stored scan.
func (s *Session) Saved(scanID string) {
	s.ScanID = scanID
}

// Reset clears everything and bumps the generation so in-flight results are dropped.
func (s *Session) Reset() {
	*s = Session{Generation: s.Generation + 1}
}
