package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/molar/internal/logtail"
)

// Level filters cycled with f. Empty shows everything.
var logLevels = []string{"", "info", "warn", "error"}

// logState holds all log-related state.
type logState struct {
	follow      bool
	level       string
	lines       []string
	entries     []logtail.Entry
	err         error
	lastRefresh time.Time
	viewport    viewport.Model
}

type logsMsg struct {
	lines []string
	err   error
}

func newLogState() logState {
	return logState{follow: true}
}

func levelLabel(level string) string {
	if level == "" {
		return "all"
	}
	return level
}

// refreshLogs reads the tail of molar's log file.
func (m *Model) refreshLogs() tea.Cmd {
	if m.config == nil {
		return nil
	}
	if time.Since(m.logs.lastRefresh) < LogRefreshDebounce {
		return nil
	}
	m.logs.lastRefresh = time.Now()

	path := m.config.LogPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogBufferLimit)
		return logsMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.lines = msg.lines
	}
	m.refreshLogView()
}

// refreshLogView re-filters the buffered lines into the viewport.
func (m *Model) refreshLogView() {
	m.logs.entries = logtail.Filter(m.logs.lines, m.logs.level, "")
	if m.logs.viewport.Width == 0 {
		return
	}

	styles := m.theme.Styles()
	rendered := make([]string, 0, len(m.logs.entries))
	for _, e := range m.logs.entries {
		rendered = append(rendered, m.colorizeEntry(e, styles))
	}
	m.logs.viewport.SetContent(strings.Join(rendered, "\n"))
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

// colorizeEntry styles one parsed log line.
func (m *Model) colorizeEntry(e logtail.Entry, styles Styles) string {
	if e.Level == "" {
		return styles.MutedText.Render(e.Raw)
	}

	parts := []string{
		styles.FaintText.Render(e.Time),
		levelStyle(e.Level, styles).Bold(true).Render(e.Level),
	}
	for _, f := range e.Fields {
		parts = append(parts, styles.AccentText.Render(f.Key+"="+f.Value))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	return strings.Join(parts, " ")
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERRO", "FATA", "PANI":
		return styles.DangerText
	case "DEBU", "TRAC":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	if m.logs.err != nil {
		return styles.DangerText.Render("Unable to read log: " + m.logs.err.Error())
	}
	if len(m.logs.entries) == 0 {
		path := ""
		if m.config != nil {
			path = m.config.LogPath()
		}
		return styles.FaintText.Render("No log entries yet " + path)
	}
	return m.logs.viewport.View()
}

// handleLogsKey processes keyboard input for logs view.
func (m *Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
		}

	case key.Matches(msg, m.keys.CycleLevel):
		for i, level := range logLevels {
			if level == m.logs.level {
				m.logs.level = logLevels[(i+1)%len(logLevels)]
				break
			}
		}
		m.refreshLogView()

	case key.Matches(msg, m.keys.Top):
		m.logs.viewport.GotoTop()
		m.logs.follow = false

	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		m.logs.follow = true

	case key.Matches(msg, m.keys.Down):
		m.logs.viewport.LineDown(1)
		m.logs.follow = false

	case key.Matches(msg, m.keys.Up):
		m.logs.viewport.LineUp(1)
		m.logs.follow = false

	case key.Matches(msg, m.keys.HalfPageDown):
		m.logs.viewport.HalfViewDown()
		m.logs.follow = false

	case key.Matches(msg, m.keys.HalfPageUp):
		m.logs.viewport.HalfViewUp()
		m.logs.follow = false
	}

	return *m, nil
}
