package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/molar/internal/scan"
	"github.com/five82/molar/internal/state"
)

// renderHeader renders the status bar with camera, dashboard and scan state.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	content := m.buildStatusContent(styles, bg)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	var parts []string

	parts = append(parts, bg.Render("molar", styles.Logo))

	// Camera indicator
	label := m.snapshot.DeviceLabel()
	if compact {
		label = strings.TrimPrefix(label, "Camera: ")
	}
	switch m.snapshot.DeviceState() {
	case state.DeviceConnected:
		parts = append(parts, bg.Render("● "+label, styles.SuccessText))
	case state.DeviceDisconnected:
		parts = append(parts, bg.Render("● "+label, styles.DangerText))
	default:
		parts = append(parts, bg.Render("● "+label, styles.MutedText))
	}

	if m.snapshot.IsOffline() {
		parts = append(parts,
			bg.Render("DASHBOARD", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(classifyConnectionError(m.snapshot.LastError), styles.DangerText))
	}

	// Scan step
	parts = append(parts,
		bg.Render("Scan:", styles.MutedText)+bg.Space()+
			bg.Render(m.scanStateLabel(), styles.InfoText))

	if n := len(m.snapshot.Scans); n > 0 {
		parts = append(parts,
			bg.Render("Saved:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", n), styles.Text))
	}

	if timeStr := m.formatTimestamp(); timeStr != "" && !compact {
		parts = append(parts, bg.Render(timeStr, styles.MutedText))
	}

	if m.notice != "" {
		maxLen := 60
		if compact {
			maxLen = 30
		}
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.notice, maxLen), styles.WarningText))
	}

	return bg.Join(parts, "  ")
}

// scanStateLabel names the active session view.
func (m Model) scanStateLabel() string {
	if m.session.View == scan.ViewLoading {
		if text := m.session.StepText(); text != "" {
			return strings.TrimSuffix(text, "...")
		}
	}
	return m.session.View.String()
}

// formatTimestamp formats the last device poll with a relative indicator.
func (m Model) formatTimestamp() string {
	updated := m.snapshot.LastUpdated
	if updated.IsZero() {
		return ""
	}

	timeSince := time.Since(updated)
	timeStr := updated.Format("15:04:05")

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	}

	return timeStr
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// command is one key hint in the command bar.
type command struct{ key, desc string }

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var commands []command

	switch m.screen {
	case ScreenLogs:
		followLabel := "Pause"
		if !m.logs.follow {
			followLabel = "Follow"
		}
		commands = []command{
			{"Space", followLabel},
			{"f", "Level " + levelLabel(m.logs.level)},
			{"j/k", "Scroll"},
			{"esc", "Scan"},
			{"H", "Saved"},
			{"?", "More"},
		}
	case ScreenHistory:
		commands = []command{
			{"j/k", "Navigate"},
			{"d", "Delete"},
			{"esc", "Scan"},
			{"L", "Logs"},
			{"?", "More"},
		}
	default:
		commands = m.scanCommands()
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// scanCommands lists the hints for the current session view.
func (m Model) scanCommands() []command {
	switch m.session.View {
	case scan.ViewLoading:
		return []command{{"n", "Cancel"}, {"L", "Logs"}, {"?", "More"}}
	case scan.ViewReview:
		return []command{{"a", "Analyze"}, {"r", "Retake"}, {"H", "Saved"}, {"L", "Logs"}, {"?", "More"}}
	case scan.ViewResults:
		save := "Save"
		if m.session.ScanID != "" {
			save = "Saved"
		}
		return []command{{"s", save}, {"x", "Export"}, {"y", "Copy"}, {"n", "New scan"}, {"j/k", "Scroll"}, {"?", "More"}}
	default:
		return []command{{"c", "Capture"}, {"H", "Saved"}, {"L", "Logs"}, {"?", "More"}}
	}
}

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
