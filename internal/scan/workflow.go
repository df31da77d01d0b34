package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/logging"
)

// ErrGaveUp is returned when the poll budget runs out.
var ErrGaveUp = errors.New("gave up waiting")

// Options tune a Workflow.
type Options struct {
	Logger       logrus.FieldLogger
	CaptureDelay time.Duration
	PollInterval time.Duration
	MaxAttempts  int // zero polls until the context ends
}

// Workflow runs the network half of a scan against the dashboard. It holds
// no session state; callers feed results into a Session.
type Workflow struct {
	api          dashboard.API
	log          logrus.FieldLogger
	captureDelay time.Duration
	pollInterval time.Duration
	maxAttempts  int
}

// NewWorkflow builds a Workflow over api.
func NewWorkflow(api dashboard.API, opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	delay := opts.CaptureDelay
	if delay < 0 {
		delay = 0
	}
	attempts := opts.MaxAttempts
	if attempts < 0 {
		attempts = 0
	}
	return &Workflow{
		api:          api,
		log:          logger,
		captureDelay: delay,
		pollInterval: interval,
		maxAttempts:  attempts,
	}
}

// CaptureDelay is the pause between queueing a capture and the first check.
func (w *Workflow) CaptureDelay() time.Duration { return w.captureDelay }

// PollInterval is the pause between checks.
func (w *Workflow) PollInterval() time.Duration { return w.pollInterval }

// MaxAttempts is the poll budget; zero is unbounded.
func (w *Workflow) MaxAttempts() int { return w.maxAttempts }

// RequestCapture queues a capture and returns the device request id.
func (w *Workflow) RequestCapture(ctx context.Context) (string, error) {
	resp, err := w.api.RequestCapture(ctx)
	if err != nil {
		return "", fmt.Errorf("request capture: %w", err)
	}
	if resp.Status != dashboard.StatusSuccess {
		return "", errors.New(fallback(resp.Message, "Failed to queue capture request"))
	}
	w.log.WithFields(logging.Fields{"request_id": resp.RequestID}).Info("capture queued")
	return resp.RequestID, nil
}

// CheckImage asks once for the latest capture. A pending capture yields ErrNotReady.
func (w *Workflow) CheckImage(ctx context.Context) (string, error) {
	return imageResult(w.api.LatestImage(ctx))
}

// WaitForImage waits the capture delay, then checks at the poll interval until
// an image arrives, a fatal answer comes back, or the budget is spent.
func (w *Workflow) WaitForImage(ctx context.Context) (string, error) {
	if err := sleep(ctx, w.captureDelay); err != nil {
		return "", err
	}
	var filename string
	attempts := 0
	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		attempts++
		name, err := w.CheckImage(ctx)
		if errors.Is(err, ErrNotReady) {
			w.log.WithFields(logging.Fields{"attempt": attempts}).Debug("image not ready")
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		filename = name
		return nil
	})
	if errors.Is(err, ErrNotReady) {
		return "", fmt.Errorf("%w for image after %d checks", ErrGaveUp, attempts)
	}
	if err != nil {
		return "", err
	}
	w.log.WithFields(logging.Fields{"filename": filename, "attempts": attempts}).Info("image ready")
	return filename, nil
}

// LoadImage downloads an uploaded capture.
func (w *Workflow) LoadImage(ctx context.Context, filename string) ([]byte, error) {
	data, err := w.api.FetchImage(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return data, nil
}

// Analyze submits the capture for analysis. image may be nil, in which case it
// is downloaded first. progress, when set, receives each step as it starts.
func (w *Workflow) Analyze(ctx context.Context, filename string, image []byte, progress func(step int)) (dashboard.Analysis, error) {
	if filename == "" {
		return dashboard.Analysis{}, ErrNoImage
	}
	report := func(step int) {
		if progress != nil {
			progress(step)
		}
	}

	report(StepRequest)
	if len(image) == 0 {
		data, err := w.LoadImage(ctx, filename)
		if err != nil {
			return dashboard.Analysis{}, err
		}
		image = data
	}

	report(StepWait)
	analysis, err := w.Submit(ctx, filename, image)
	if err != nil {
		return dashboard.Analysis{}, err
	}
	report(StepCheck)
	return analysis, nil
}

// Submit uploads image bytes for analysis and returns the result tagged with filename.
func (w *Workflow) Submit(ctx context.Context, filename string, image []byte) (dashboard.Analysis, error) {
	started := time.Now()
	result, err := w.api.AnalyzeImage(ctx, filename, image)
	if err != nil {
		return dashboard.Analysis{}, err
	}
	if result == nil {
		return dashboard.Analysis{}, errors.New("Invalid response from analysis service")
	}

	analysis := *result
	analysis.Filename = filename
	if _, dropped := analysis.ValidPredictions(); dropped > 0 {
		w.log.WithFields(logging.Fields{"filename": filename, "dropped": dropped}).Warn("ignoring malformed predictions")
	}
	w.log.WithFields(logging.Fields{
		"filename": filename,
		"status":   analysis.Status,
		"elapsed":  time.Since(started).Round(time.Millisecond).String(),
	}).Info("analysis complete")
	return analysis, nil
}

// CheckAnalysis asks once for the stored analysis.
func (w *Workflow) CheckAnalysis(ctx context.Context) (dashboard.StoredAnalysis, error) {
	resp, err := w.api.FetchAnalysis(ctx)
	if err != nil {
		if ClassifyError(err) == NotReady {
			return dashboard.StoredAnalysis{}, fmt.Errorf("%w: %v", ErrNotReady, err)
		}
		return dashboard.StoredAnalysis{}, err
	}
	switch Classify(resp.Status, resp.Message) {
	case Ready:
		if resp.Data == nil {
			return dashboard.StoredAnalysis{}, errors.New("dashboard returned no analysis data")
		}
		return *resp.Data, nil
	case NotReady:
		return dashboard.StoredAnalysis{}, fmt.Errorf("%w: %s", ErrNotReady, fallback(resp.Message, resp.Status))
	default:
		return dashboard.StoredAnalysis{}, errors.New(fallback(resp.Message, "Analysis failed"))
	}
}

// WaitForAnalysis polls /get-analysis until a stored result is available.
func (w *Workflow) WaitForAnalysis(ctx context.Context) (dashboard.StoredAnalysis, error) {
	var stored dashboard.StoredAnalysis
	attempts := 0
	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		attempts++
		got, err := w.CheckAnalysis(ctx)
		if errors.Is(err, ErrNotReady) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		stored = got
		return nil
	})
	if errors.Is(err, ErrNotReady) {
		return stored, fmt.Errorf("%w for analysis after %d checks", ErrGaveUp, attempts)
	}
	if err != nil {
		return stored, err
	}
	if stored.Analysis.Filename == "" {
		stored.Analysis.Filename = stored.Filename
	}
	return stored, nil
}

// Save stores the analysis on the dashboard and returns the scan id.
func (w *Workflow) Save(ctx context.Context, analysis dashboard.Analysis) (string, error) {
	if analysis.Filename == "" {
		return "", ErrNoImage
	}
	resp, err := w.api.SaveScan(ctx, analysis.Filename, analysis)
	if err != nil {
		return "", fmt.Errorf("save scan: %w", err)
	}
	w.log.WithFields(logging.Fields{"scan_id": resp.ScanID, "filename": analysis.Filename}).Info("scan saved")
	return resp.ScanID, nil
}

// Delete removes a saved scan.
func (w *Workflow) Delete(ctx context.Context, scanID string) error {
	if err := w.api.DeleteScan(ctx, scanID); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	w.log.WithFields(logging.Fields{"scan_id": scanID}).Info("scan deleted")
	return nil
}

func (w *Workflow) backoff() retry.Backoff {
	b := retry.NewConstant(w.pollInterval)
	if w.maxAttempts > 0 {
		b = retry.WithMaxRetries(uint64(w.maxAttempts-1), b)
	}
	return b
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
