package scan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/five82/molar/internal/dashboard"
)

// ErrNotReady marks a poll answer that should be retried.
var ErrNotReady = errors.New("not ready")

// Outcome is the verdict on one poll answer.
type Outcome int

const (
	NotReady Outcome = iota
	Ready
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case Fatal:
		return "fatal"
	default:
		return "not-ready"
	}
}

var notReadyMessages = []string{
	"No completed captures",
	"No images found",
	"No analysis results found",
}

// Classify maps a status/message pair onto an Outcome.
func Classify(status, message string) Outcome {
	switch status {
	case dashboard.StatusSuccess:
		return Ready
	case dashboard.StatusWaiting:
		return NotReady
	}
	if transientMessage(message) {
		return NotReady
	}
	return Fatal
}

// ClassifyError decides whether a transport error is transient.
func ClassifyError(err error) Outcome {
	if err == nil {
		return Ready
	}
	if errors.Is(err, ErrNotReady) {
		return NotReady
	}
	var apiErr *dashboard.APIError
	if errors.As(err, &apiErr) && transientMessage(apiErr.Message) {
		return NotReady
	}
	return Fatal
}

func transientMessage(message string) bool {
	for _, m := range notReadyMessages {
		if strings.Contains(message, m) {
			return true
		}
	}
	return false
}

// imageResult turns a /get-latest-image answer into a filename, ErrNotReady or a fatal error.
func imageResult(resp dashboard.LatestImageResponse, err error) (string, error) {
	if err != nil {
		if ClassifyError(err) == NotReady {
			return "", fmt.Errorf("%w: %v", ErrNotReady, err)
		}
		return "", err
	}
	switch Classify(resp.Status, resp.Message) {
	case Ready:
		if strings.TrimSpace(resp.Filename) == "" {
			return "", errors.New("dashboard returned no filename")
		}
		return resp.Filename, nil
	case NotReady:
		return "", fmt.Errorf("%w: %s", ErrNotReady, fallback(resp.Message, resp.Status))
	default:
		return "", errors.New(fallback(resp.Message, "Failed to get image"))
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
