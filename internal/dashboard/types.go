package dashboard

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Response status values shared by the capture endpoints.
const (
	StatusSuccess = "success"
	StatusWaiting = "waiting"
	StatusError   = "error"
)

// Overall scan status labels produced by the analysis service.
const (
	ScanGood             = "Good"
	ScanNeedsImprovement = "Needs improvement"
	ScanAttentionNeeded  = "Attention needed"
	ScanUnknown          = "Unknown"
)

// CaptureResponse mirrors POST /capture-only.
type CaptureResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// LatestImageResponse mirrors GET /get-latest-image.
type LatestImageResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Filename  string `json:"filename"`
	RequestID string `json:"request_id"`
}

// Prediction is one classified region. Box is [x0, y0, x1, y1] in source-image pixels.
type Prediction struct {
	Class      string    `json:"class" yaml:"class" validate:"required"`
	Confidence float64   `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
	Box        []float64 `json:"box_2d" yaml:"box_2d" validate:"len=4"`
}

// Analysis is the enhanced payload returned by /analyze-image.
type Analysis struct {
	Status          string             `json:"status" yaml:"status"`
	PrimaryIssue    string             `json:"primary_issue" yaml:"primary_issue"`
	DetectionCounts map[string]int     `json:"detection_counts" yaml:"detection_counts"`
	Confidences     map[string]float64 `json:"confidences" yaml:"confidences"`
	Recommendations []string           `json:"recommendations" yaml:"recommendations"`
	Predictions     []Prediction       `json:"predictions" yaml:"predictions"`
	Filename        string             `json:"filename,omitempty" yaml:"filename,omitempty"`
}

// AnalyzeResponse mirrors POST /analyze-image.
type AnalyzeResponse struct {
	Response *Analysis `json:"response"`
	Error    string    `json:"error"`
}

// StoredAnalysis is the record the dashboard keeps next to each analysed image.
type StoredAnalysis struct {
	Filename  string   `json:"filename"`
	Timestamp string   `json:"timestamp"`
	Analysis  Analysis `json:"analysis"`
}

// ParsedTimestamp returns the record timestamp, or the zero time.
func (s StoredAnalysis) ParsedTimestamp() time.Time {
	return parseTime(s.Timestamp)
}

// StoredAnalysisResponse mirrors GET /get-analysis.
type StoredAnalysisResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    *StoredAnalysis `json:"data"`
}

// SaveScanRequest is the body of POST /save-scan.
type SaveScanRequest struct {
	Filename string   `json:"filename"`
	Analysis Analysis `json:"analysis"`
}

// SaveScanResponse mirrors POST /save-scan.
type SaveScanResponse struct {
	Status  string `json:"status"`
	ScanID  string `json:"scan_id"`
	Message string `json:"message"`
}

// DeviceStatus mirrors GET /api/pi-status.
type DeviceStatus struct {
	Connected bool   `json:"connected"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

var predictionValidator = validator.New()

// ValidPredictions returns the predictions that can be drawn and the number dropped.
func (a Analysis) ValidPredictions() ([]Prediction, int) {
	if len(a.Predictions) == 0 {
		return nil, 0
	}
	valid := make([]Prediction, 0, len(a.Predictions))
	dropped := 0
	for _, p := range a.Predictions {
		if err := predictionValidator.Struct(p); err != nil {
			dropped++
			continue
		}
		valid = append(valid, p)
	}
	return valid, dropped
}

// NormalizedStatus folds the status label onto the four known values.
func (a Analysis) NormalizedStatus() string {
	switch strings.TrimSpace(a.Status) {
	case ScanGood:
		return ScanGood
	case ScanNeedsImprovement:
		return ScanNeedsImprovement
	case ScanAttentionNeeded:
		return ScanAttentionNeeded
	default:
		return ScanUnknown
	}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
