package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/state"
)

// handleHistoryKey processes keyboard input on the saved scans screen.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	scans := m.snapshot.Scans
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.historyRow < len(scans)-1 {
			m.historyRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.historyRow > 0 {
			m.historyRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.historyRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.historyRow = max(0, len(scans)-1)
	case key.Matches(msg, m.keys.Delete):
		if m.workflow == nil || m.historyRow >= len(scans) {
			return m, nil
		}
		target := scans[m.historyRow]
		m.modal = newConfirmModal(
			"Delete scan",
			fmt.Sprintf("Delete scan %s (%s) from the dashboard?", target.ID, target.Filename),
			deleteCmd(m.ctx, m.workflow, target.ID),
		)
	}
	return m, nil
}

// renderHistory renders the scans saved during this run.
func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	scans := m.snapshot.Scans

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Saved scans"))
	b.WriteString("\n\n")

	if len(scans) == 0 {
		b.WriteString(styles.FaintText.Render("No scans saved yet. Save a result with s."))
		return styles.Panel.Width(m.panelWidth()).Render(b.String())
	}

	for i, s := range scans {
		b.WriteString(m.renderHistoryRow(s, i == m.historyRow, styles))
		if i < len(scans)-1 {
			b.WriteString("\n")
		}
	}
	return styles.Panel.Width(m.panelWidth()).Render(b.String())
}

func (m Model) renderHistoryRow(s state.SavedScan, selected bool, styles Styles) string {
	status := presentStatus(dashboard.Analysis{Status: s.Status})
	badge := styles.SeverityStyle(status.Severity).Render(status.Icon)
	when := s.SavedAt.Format("15:04:05")
	id := truncate(s.ID, 24)
	file := truncate(s.Filename, 40)

	line := fmt.Sprintf("%-24s  %s  %-40s  %s", id, when, file, status.Label)
	if selected {
		return badge + " " + styles.Selected.Render(line)
	}
	return badge + " " + styles.Text.Render(line)
}
