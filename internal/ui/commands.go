package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/report"
	"github.com/five82/molar/internal/scan"
	"github.com/five82/molar/internal/state"
)

// Message types for async operations. Scan results carry the session
// generation they were started under.

type tickMsg time.Time

type snapshotMsg state.Snapshot

type captureQueuedMsg struct {
	gen       uint64
	requestID string
	err       error
}

type pollMsg struct {
	gen uint64
}

type imageCheckedMsg struct {
	gen      uint64
	filename string
	err      error
}

type imageLoadedMsg struct {
	gen      uint64
	filename string
	data     []byte
	err      error
}

type analyzePreparedMsg struct {
	gen  uint64
	data []byte
	err  error
}

type analyzedMsg struct {
	gen      uint64
	analysis dashboard.Analysis
	err      error
}

type savedMsg struct {
	gen      uint64
	scanID   string
	filename string
	status   string
	err      error
}

type exportedMsg struct {
	result report.Result
	err    error
}

type deletedMsg struct {
	id  string
	err error
}

type copiedMsg struct {
	err error
}

// tickCmd returns a command that sends a tick after the given duration.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshotCmd returns a command that fetches the current store snapshot.
func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// pollAfter schedules the next image check for gen.
func pollAfter(d time.Duration, gen uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pollMsg{gen: gen}
	})
}

func requestCaptureCmd(ctx context.Context, wf *scan.Workflow, gen uint64) tea.Cmd {
	return func() tea.Msg {
		id, err := wf.RequestCapture(ctx)
		return captureQueuedMsg{gen: gen, requestID: id, err: err}
	}
}

func checkImageCmd(ctx context.Context, wf *scan.Workflow, gen uint64) tea.Cmd {
	return func() tea.Msg {
		name, err := wf.CheckImage(ctx)
		return imageCheckedMsg{gen: gen, filename: name, err: err}
	}
}

func loadImageCmd(ctx context.Context, wf *scan.Workflow, gen uint64, filename string) tea.Cmd {
	return func() tea.Msg {
		data, err := wf.LoadImage(ctx, filename)
		return imageLoadedMsg{gen: gen, filename: filename, data: data, err: err}
	}
}

// prepareAnalysisCmd reuses cached capture bytes or downloads them.
func prepareAnalysisCmd(ctx context.Context, wf *scan.Workflow, gen uint64, filename string, image []byte) tea.Cmd {
	return func() tea.Msg {
		if len(image) > 0 {
			return analyzePreparedMsg{gen: gen, data: image}
		}
		data, err := wf.LoadImage(ctx, filename)
		return analyzePreparedMsg{gen: gen, data: data, err: err}
	}
}

func submitCmd(ctx context.Context, wf *scan.Workflow, gen uint64, filename string, image []byte) tea.Cmd {
	return func() tea.Msg {
		analysis, err := wf.Submit(ctx, filename, image)
		return analyzedMsg{gen: gen, analysis: analysis, err: err}
	}
}

func saveCmd(ctx context.Context, wf *scan.Workflow, gen uint64, analysis dashboard.Analysis) tea.Cmd {
	return func() tea.Msg {
		id, err := wf.Save(ctx, analysis)
		return savedMsg{
			gen:      gen,
			scanID:   id,
			filename: analysis.Filename,
			status:   analysis.NormalizedStatus(),
			err:      err,
		}
	}
}

func exportCmd(exp *report.Exporter, analysis dashboard.Analysis, image []byte, scanID string) tea.Cmd {
	return func() tea.Msg {
		res, err := exp.Export(analysis, image, scanID)
		return exportedMsg{result: res, err: err}
	}
}

func deleteCmd(ctx context.Context, wf *scan.Workflow, id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: wf.Delete(ctx, id)}
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}
