package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/scan"
)

// renderScan renders the scan screen for the current session view.
func (m Model) renderScan() string {
	switch m.session.View {
	case scan.ViewLoading:
		return m.renderLoading()
	case scan.ViewReview:
		return m.renderReview()
	case scan.ViewResults:
		return m.resultsView.View()
	default:
		return m.renderCamera()
	}
}

func (m Model) renderCamera() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Camera"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render(m.snapshot.DeviceLabel()))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("c"))
	b.WriteString(styles.Text.Render(" to capture an image from the intraoral camera"))
	if m.session.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.DangerText.Render(m.session.Message))
	}
	return styles.Panel.Width(m.panelWidth()).Render(b.String())
}

func (m Model) renderLoading() string {
	styles := m.theme.Styles()

	title := "Capturing"
	if m.session.Phase == scan.PhaseAnalyze {
		title = "Analyzing"
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")

	for i, label := range m.session.StepLabels() {
		switch {
		case i < m.session.Step:
			b.WriteString(styles.SuccessText.Render("✓ " + label))
		case i == m.session.Step:
			b.WriteString(styles.AccentText.Render("› " + label))
		default:
			b.WriteString(styles.FaintText.Render("· " + label))
		}
		b.WriteString("\n")
	}

	if m.session.Phase == scan.PhaseCapture && m.session.Attempts > 0 {
		checks := fmt.Sprintf("check %d", m.session.Attempts)
		if limit := m.maxAttempts(); limit > 0 {
			checks = fmt.Sprintf("check %d of %d", m.session.Attempts, limit)
		}
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(checks))
	}
	return styles.Panel.Width(m.panelWidth()).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderReview() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Review capture"))
	b.WriteString("  ")
	b.WriteString(styles.MutedText.Render(m.session.Filename))
	b.WriteString("\n\n")

	// Leave room for the title, hints and panel border.
	b.WriteString(m.renderPreview(nil, m.panelWidth()-4, m.contentHeight()-8))
	b.WriteString("\n\n")

	if m.session.Message != "" {
		b.WriteString(styles.DangerText.Render(m.session.Message))
		b.WriteString("\n")
	}
	b.WriteString(styles.AccentText.Render("a"))
	b.WriteString(styles.Text.Render(" analyze   "))
	b.WriteString(styles.AccentText.Render("r"))
	b.WriteString(styles.Text.Render(" retake"))
	return styles.Panel.Width(m.panelWidth()).Render(b.String())
}

// renderPreview draws the capture or a placeholder when it cannot be shown yet.
func (m Model) renderPreview(preds []dashboard.Prediction, cols, rows int) string {
	styles := m.theme.Styles()
	switch {
	case m.preview.err != nil:
		return styles.WarningText.Render("Preview unavailable")
	case !m.preview.Ready() || cols < PreviewMinCols || rows < 2:
		if len(m.session.Image) == 0 {
			return styles.FaintText.Render("No preview")
		}
		return styles.FaintText.Render("Preparing annotated preview...")
	}
	return m.preview.Render(styles, preds, cols, rows)
}

// refreshResults rebuilds the results viewport content.
func (m *Model) refreshResults() {
	a := m.session.Analysis
	if a == nil {
		m.resultsView.SetContent("")
		return
	}

	preds, _ := a.ValidPredictions()
	panelWidth := m.panelWidth()
	if m.width >= LayoutSideBySideWidth {
		half := panelWidth / 2
		img := m.renderPreview(preds, half-2, m.contentHeight()-2)
		panel := m.renderResultsPanel(panelWidth - half)
		m.resultsView.SetContent(lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(half).Render(img), panel))
		return
	}

	img := m.renderPreview(preds, panelWidth-2, m.contentHeight()/2)
	m.resultsView.SetContent(img + "\n\n" + m.renderResultsPanel(panelWidth))
}

// renderResultsPanel renders status, primary issue, detections and recommendations.
func (m Model) renderResultsPanel(width int) string {
	a := *m.session.Analysis
	styles := m.theme.Styles()

	var b strings.Builder

	status := presentStatus(a)
	b.WriteString(styles.Text.Bold(true).Render("Scan Results"))
	b.WriteString("  ")
	b.WriteString(styles.SeverityStyle(status.Severity).Render(status.Icon + " " + status.Label))
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("Primary issue"))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(primaryIssue(a)))
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("Detections"))
	b.WriteString("\n")
	rows, ok := detectionRows(a)
	if !ok {
		b.WriteString(styles.FaintText.Render(noDetectionsText))
		b.WriteString("\n")
	}
	for _, row := range rows {
		icon := lipgloss.NewStyle().Foreground(styles.ClassColor(row.Kind)).Render(row.Icon)
		line := fmt.Sprintf("%s %s %s", icon, styles.Text.Bold(true).Render(fmt.Sprintf("%d", row.Count)), styles.Text.Render(row.Label))
		if row.Confidence != "" {
			line += "  " + styles.MutedText.Render(row.Confidence)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(styles.MutedText.Render("Recommendations"))
	b.WriteString("\n")
	recs := recommendationLines(a)
	if len(recs) == 0 {
		b.WriteString(styles.FaintText.Render(noRecommendationsText))
		b.WriteString("\n")
	}
	for _, rec := range recs {
		b.WriteString(styles.Text.Render("• " + rec))
		b.WriteString("\n")
	}

	if m.session.ScanID != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessText.Render("Saved as " + m.session.ScanID))
		b.WriteString("\n")
	}
	if m.session.Filename != "" {
		b.WriteString(styles.FaintText.Render(m.session.Filename))
	}

	return styles.Panel.Width(max(width-2, 20)).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) panelWidth() int {
	return max(m.width-2, 24)
}

func (m Model) maxAttempts() int {
	if m.workflow == nil {
		return 0
	}
	return m.workflow.MaxAttempts()
}
