package ui

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/scan"
	"github.com/five82/molar/internal/state"
)

// fakeAPI replays canned dashboard answers for the model tests.
type fakeAPI struct {
	captureErr error
	latest     []dashboard.LatestImageResponse
	latestIdx  int
	image      []byte
	analysis   *dashboard.Analysis
	analyzeErr error
	scanID     string
	deleted    []string
}

var _ dashboard.API = (*fakeAPI)(nil)

func (f *fakeAPI) Login(context.Context, string, string) error { return nil }

func (f *fakeAPI) RequestCapture(context.Context) (dashboard.CaptureResponse, error) {
	if f.captureErr != nil {
		return dashboard.CaptureResponse{}, f.captureErr
	}
	return dashboard.CaptureResponse{Status: dashboard.StatusSuccess, RequestID: "req-1"}, nil
}

func (f *fakeAPI) LatestImage(context.Context) (dashboard.LatestImageResponse, error) {
	idx := min(f.latestIdx, len(f.latest)-1)
	f.latestIdx++
	return f.latest[idx], nil
}

func (f *fakeAPI) FetchImage(context.Context, string) ([]byte, error) {
	return f.image, nil
}

func (f *fakeAPI) AnalyzeImage(context.Context, string, []byte) (*dashboard.Analysis, error) {
	return f.analysis, f.analyzeErr
}

func (f *fakeAPI) FetchAnalysis(context.Context) (dashboard.StoredAnalysisResponse, error) {
	return dashboard.StoredAnalysisResponse{Status: dashboard.StatusWaiting}, nil
}

func (f *fakeAPI) SaveScan(context.Context, string, dashboard.Analysis) (dashboard.SaveScanResponse, error) {
	return dashboard.SaveScanResponse{Status: dashboard.StatusSuccess, ScanID: f.scanID}, nil
}

func (f *fakeAPI) DeleteScan(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) DeviceStatus(context.Context) (dashboard.DeviceStatus, error) {
	return dashboard.DeviceStatus{Connected: true}, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleAnalysis() *dashboard.Analysis {
	return &dashboard.Analysis{
		Status:          "Needs improvement",
		PrimaryIssue:    "Plaque buildup on molars",
		DetectionCounts: map[string]int{"plaque": 2, "caries": 0, "healthy": 1},
		Confidences:     map[string]float64{"plaque": 82.6},
		Recommendations: []string{"Brush twice daily", "Floss after meals"},
		Predictions: []dashboard.Prediction{
			{Class: "plaque", Confidence: 0.826, Box: []float64{0, 0, 2, 1}},
		},
	}
}

type harness struct {
	api       *fakeAPI
	store     *state.Store
	clipboard []string
}

func newTestModel(t *testing.T, api *fakeAPI, maxAttempts int) (Model, *harness) {
	t.Helper()
	h := &harness{api: api, store: &state.Store{}}
	wf := scan.NewWorkflow(api, scan.Options{
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
	})
	m := New(Options{
		Context:  context.Background(),
		Workflow: wf,
		Store:    h.store,
		Clipboard: func(s string) error {
			h.clipboard = append(h.clipboard, s)
			return nil
		},
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 80})
	return next.(Model), h
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return out, cmd
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

// run executes a command that does not sleep and feeds its message back.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	return update(t, m, cmd())
}
