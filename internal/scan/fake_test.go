package scan

import (
	"context"
	"sync"

	"github.com/five82/molar/internal/dashboard"
)

type latestAnswer struct {
	resp dashboard.LatestImageResponse
	err  error
}

// fakeAPI replays canned dashboard answers.
type fakeAPI struct {
	mu sync.Mutex

	capture    dashboard.CaptureResponse
	captureErr error

	latest      []latestAnswer
	latestCalls int

	image       []byte
	imageCalls  int
	analysis    *dashboard.Analysis
	analyzeErr  error
	gotAnalyzed []byte

	stored      []dashboard.StoredAnalysisResponse
	storedErr   []error
	storedCalls int

	saveResp  dashboard.SaveScanResponse
	saveErr   error
	deletedID string
}

var _ dashboard.API = (*fakeAPI)(nil)

func (f *fakeAPI) Login(context.Context, string, string) error { return nil }

func (f *fakeAPI) RequestCapture(context.Context) (dashboard.CaptureResponse, error) {
	return f.capture, f.captureErr
}

func (f *fakeAPI) LatestImage(context.Context) (dashboard.LatestImageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.latestCalls
	f.latestCalls++
	if idx >= len(f.latest) {
		idx = len(f.latest) - 1
	}
	a := f.latest[idx]
	return a.resp, a.err
}

func (f *fakeAPI) FetchImage(context.Context, string) ([]byte, error) {
	f.imageCalls++
	return f.image, nil
}

func (f *fakeAPI) AnalyzeImage(_ context.Context, _ string, image []byte) (*dashboard.Analysis, error) {
	f.gotAnalyzed = image
	return f.analysis, f.analyzeErr
}

func (f *fakeAPI) FetchAnalysis(context.Context) (dashboard.StoredAnalysisResponse, error) {
	idx := f.storedCalls
	f.storedCalls++
	if idx >= len(f.stored) {
		idx = len(f.stored) - 1
	}
	var err error
	if idx < len(f.storedErr) {
		err = f.storedErr[idx]
	}
	return f.stored[idx], err
}

func (f *fakeAPI) SaveScan(context.Context, string, dashboard.Analysis) (dashboard.SaveScanResponse, error) {
	return f.saveResp, f.saveErr
}

func (f *fakeAPI) DeleteScan(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

func (f *fakeAPI) DeviceStatus(context.Context) (dashboard.DeviceStatus, error) {
	return dashboard.DeviceStatus{Connected: true}, nil
}
