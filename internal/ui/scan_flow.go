package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/molar/internal/logging"
	"github.com/five82/molar/internal/report"
	"github.com/five82/molar/internal/scan"
	"github.com/five82/molar/internal/state"
)

// Alert prefixes shown when a scan step fails.
const (
	captureFailedPrefix  = "Failed to capture image: "
	imageFailedPrefix    = "Failed to get captured image: "
	analysisFailedPrefix = "Analysis failed: "
)

// handleScanKey processes keyboard input on the scan screen.
func (m Model) handleScanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.session.View {
	case scan.ViewCamera:
		if key.Matches(msg, m.keys.Capture) {
			return m.startCapture()
		}

	case scan.ViewLoading:
		if key.Matches(msg, m.keys.NewScan) {
			m.resetScan()
			return m, nil
		}

	case scan.ViewReview:
		switch {
		case key.Matches(msg, m.keys.Analyze):
			return m.startAnalyze()
		case key.Matches(msg, m.keys.Retake):
			m.session.Retake()
			m.preview = preview{}
			return m, nil
		}

	case scan.ViewResults:
		switch {
		case key.Matches(msg, m.keys.NewScan):
			m.resetScan()
			return m, nil
		case key.Matches(msg, m.keys.Save):
			return m.saveScan()
		case key.Matches(msg, m.keys.Export):
			return m.exportScan()
		case key.Matches(msg, m.keys.CopyRecs):
			return m.copyRecommendations()
		case key.Matches(msg, m.keys.Down):
			m.resultsView.LineDown(1)
		case key.Matches(msg, m.keys.Up):
			m.resultsView.LineUp(1)
		case key.Matches(msg, m.keys.HalfPageDown):
			m.resultsView.HalfViewDown()
		case key.Matches(msg, m.keys.HalfPageUp):
			m.resultsView.HalfViewUp()
		case key.Matches(msg, m.keys.Top):
			m.resultsView.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.resultsView.GotoBottom()
		}
	}
	return m, nil
}

// handleScanMsg applies async scan results. Results from an older generation are dropped.
func (m Model) handleScanMsg(msg tea.Msg) (Model, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case captureQueuedMsg:
		if !m.session.Current(msg.gen) {
			return m, nil, true
		}
		if msg.err != nil {
			return m.captureFailed(captureFailedPrefix, msg.err), nil, true
		}
		m.session.CaptureQueued(msg.requestID)
		return m, pollAfter(m.workflow.CaptureDelay(), msg.gen), true

	case pollMsg:
		if !m.session.Current(msg.gen) || m.session.Phase != scan.PhaseCapture {
			return m, nil, true
		}
		if m.session.PollExhausted(m.workflow.MaxAttempts()) {
			err := fmt.Errorf("%w for image after %d checks", scan.ErrGaveUp, m.session.Attempts)
			return m.captureFailed(imageFailedPrefix, err), nil, true
		}
		m.session.Polling()
		return m, checkImageCmd(m.cycleCtx, m.workflow, msg.gen), true

	case imageCheckedMsg:
		if !m.session.Current(msg.gen) {
			return m, nil, true
		}
		if errors.Is(msg.err, scan.ErrNotReady) {
			m.log.WithFields(logging.Fields{"attempt": m.session.Attempts}).Debug("image not ready")
			return m, pollAfter(m.workflow.PollInterval(), msg.gen), true
		}
		if msg.err != nil {
			return m.captureFailed(imageFailedPrefix, msg.err), nil, true
		}
		return m, loadImageCmd(m.cycleCtx, m.workflow, msg.gen, msg.filename), true

	case imageLoadedMsg:
		if !m.session.Current(msg.gen) {
			return m, nil, true
		}
		m.endCycle()
		m.session.ImageReady(msg.filename, msg.data)
		m.preview = newPreview(msg.data)
		if msg.err != nil {
			m.log.WithError(msg.err).WithFields(logging.Fields{"filename": msg.filename}).Warn("preview download failed")
			m.notice = "Preview unavailable: " + msg.err.Error()
		}
		return m, nil, true

	case analyzePreparedMsg:
		if !m.session.Current(msg.gen) {
			return m, nil, true
		}
		if msg.err != nil {
			return m.analysisFailed(msg.err), nil, true
		}
		if len(m.session.Image) == 0 {
			m.session.Image = msg.data
			m.preview = newPreview(msg.data)
		}
		m.session.AdvanceAnalyze(scan.StepWait)
		return m, submitCmd(m.cycleCtx, m.workflow, msg.gen, m.session.Filename, msg.data), true

	case analyzedMsg:
		if !m.session.Current(msg.gen) {
			return m, nil, true
		}
		if msg.err != nil {
			return m.analysisFailed(msg.err), nil, true
		}
		m.endCycle()
		m.session.AdvanceAnalyze(scan.StepCheck)
		m.session.AnalysisReady(msg.analysis)
		m.refreshResults()
		m.resultsView.GotoTop()
		return m, nil, true

	case savedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("save scan failed")
			m.modal = newMessageModal("Save failed", "Failed to save scan: "+msg.err.Error(), true)
			return m, nil, true
		}
		if m.store != nil {
			m.store.AddScan(state.SavedScan{ID: msg.scanID, Filename: msg.filename, Status: msg.status})
		}
		if m.session.Current(msg.gen) {
			m.session.Saved(msg.scanID)
		}
		m.notice = "Saved scan " + msg.scanID
		m.refreshResults()
		return m, m.snapshotCmd(), true

	case exportedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("export failed")
			m.modal = newMessageModal("Export failed", msg.err.Error(), true)
			return m, nil, true
		}
		m.log.WithFields(logging.Fields{"report": msg.result.ReportPath, "image": msg.result.ImagePath}).Info("report exported")
		m.notice = "Exported " + msg.result.ReportPath
		return m, nil, true

	case copiedMsg:
		if msg.err != nil {
			m.notice = "Clipboard unavailable: " + msg.err.Error()
		} else {
			m.notice = "Recommendations copied"
		}
		return m, nil, true

	case deletedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("delete scan failed")
			m.modal = newMessageModal("Delete failed", msg.err.Error(), true)
			return m, nil, true
		}
		if m.store != nil {
			m.store.RemoveScan(msg.id)
		}
		m.notice = "Deleted scan " + msg.id
		return m, m.snapshotCmd(), true
	}
	return m, nil, false
}

// startCapture enters Loading and queues a capture.
func (m Model) startCapture() (tea.Model, tea.Cmd) {
	if m.workflow == nil {
		return m, nil
	}
	if err := m.session.BeginCapture(); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.preview = preview{}
	m.notice = ""
	m.beginCycle()
	return m, requestCaptureCmd(m.cycleCtx, m.workflow, m.session.Generation)
}

// startAnalyze enters Loading and runs the three analysis steps.
func (m Model) startAnalyze() (tea.Model, tea.Cmd) {
	if m.workflow == nil {
		return m, nil
	}
	if err := m.session.BeginAnalyze(); err != nil {
		if errors.Is(err, scan.ErrNoImage) {
			m.modal = newMessageModal("No image", err.Error(), true)
		} else {
			m.notice = err.Error()
		}
		return m, nil
	}
	m.notice = ""
	m.beginCycle()
	return m, prepareAnalysisCmd(m.cycleCtx, m.workflow, m.session.Generation, m.session.Filename, m.session.Image)
}

func (m Model) saveScan() (tea.Model, tea.Cmd) {
	if m.workflow == nil || m.session.Analysis == nil {
		return m, nil
	}
	if m.session.ScanID != "" {
		m.notice = "Already saved as " + m.session.ScanID
		return m, nil
	}
	m.notice = "Saving..."
	return m, saveCmd(m.ctx, m.workflow, m.session.Generation, *m.session.Analysis)
}

func (m Model) exportScan() (tea.Model, tea.Cmd) {
	if m.session.Analysis == nil {
		return m, nil
	}
	if m.exporter == nil {
		m.notice = "Export is not configured"
		return m, nil
	}
	m.notice = "Exporting..."
	return m, exportCmd(m.exporter, *m.session.Analysis, m.session.Image, m.session.ScanID)
}

func (m Model) copyRecommendations() (tea.Model, tea.Cmd) {
	if m.session.Analysis == nil {
		return m, nil
	}
	text := report.RecommendationsText(*m.session.Analysis)
	if text == "" {
		m.notice = "No recommendations to copy"
		return m, nil
	}
	return m, copyCmd(m.copyText, text)
}

// captureFailed returns to Camera and raises an alert.
func (m Model) captureFailed(prefix string, err error) Model {
	m.endCycle()
	text := prefix + err.Error()
	m.log.WithError(err).WithFields(logging.Fields{"request_id": m.session.RequestID}).Warn("capture failed")
	m.session.CaptureFailed(text)
	m.modal = newMessageModal("Capture failed", text, true)
	return m
}

// analysisFailed returns to Review and raises an alert.
func (m Model) analysisFailed(err error) Model {
	m.endCycle()
	text := analysisFailedPrefix + err.Error()
	m.log.WithError(err).WithFields(logging.Fields{"filename": m.session.Filename}).Warn("analysis failed")
	m.session.AnalysisFailed(text)
	m.modal = newMessageModal("Analysis failed", text, true)
	return m
}

// resetScan starts over. In-flight work is cancelled and its results dropped.
func (m *Model) resetScan() {
	m.cancelInFlight()
	m.session.Reset()
	m.preview = preview{}
	m.notice = ""
	m.refreshResults()
}

func (m *Model) beginCycle() {
	m.cancelInFlight()
	m.cycleCtx, m.cancelCycle = context.WithCancel(m.ctx)
}

func (m *Model) endCycle() {
	m.cancelInFlight()
}

func (m *Model) cancelInFlight() {
	if m.cancelCycle != nil {
		m.cancelCycle()
		m.cancelCycle = nil
	}
}

func (m Model) snapshotCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	return fetchSnapshotCmd(m.store)
}
