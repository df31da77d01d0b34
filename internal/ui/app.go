package ui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/five82/molar/internal/config"
	"github.com/five82/molar/internal/logging"
	"github.com/five82/molar/internal/prefs"
	"github.com/five82/molar/internal/report"
	"github.com/five82/molar/internal/scan"
	"github.com/five82/molar/internal/state"
)

// Screen is the top-level page.
type Screen int

const (
	ScreenScan Screen = iota
	ScreenHistory
	ScreenLogs
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Workflow  *scan.Workflow
	Store     *state.Store
	Config    *config.Config
	Exporter  *report.Exporter
	Logger    logrus.FieldLogger
	Prefs     prefs.Prefs
	PrefsPath string
	UITick    time.Duration
	// Clipboard overrides the system clipboard writer.
	Clipboard func(string) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	workflow  *scan.Workflow
	store     *state.Store
	config    *config.Config
	exporter  *report.Exporter
	log       logrus.FieldLogger
	prefs     prefs.Prefs
	prefsPath string
	uiTick    time.Duration
	copyText  func(string) error
	keys      keyMap

	// UI state
	theme  Theme
	screen Screen
	width  int
	height int
	ready  bool

	// Scan state. The session is only touched inside Update.
	session     scan.Session
	cycleCtx    context.Context
	cancelCycle context.CancelFunc
	preview     preview
	spinner     spinner.Model
	resultsView viewport.Model
	notice      string

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// History state
	historyRow int

	// Log state
	logs logState

	// Overlays
	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	uiTick := opts.UITick
	if uiTick <= 0 {
		uiTick = DefaultUIInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	userPrefs := opts.Prefs
	if userPrefs.Theme == "" {
		userPrefs = prefs.Defaults()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		cycleCtx:  ctx,
		workflow:  opts.Workflow,
		store:     opts.Store,
		config:    opts.Config,
		exporter:  opts.Exporter,
		log:       logger,
		prefs:     userPrefs,
		prefsPath: opts.PrefsPath,
		uiTick:    uiTick,
		copyText:  copyText,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(userPrefs.Theme),
		screen:    ScreenScan,
		spinner:   sp,
		logs:      newLogState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.uiTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.resultsView = viewport.New(m.contentWidth(), m.contentHeight())
			m.logs.viewport = viewport.New(m.contentWidth(), m.contentHeight())
		}
		m.ready = true
		m.resultsView.Width = m.contentWidth()
		m.resultsView.Height = m.contentHeight()
		m.logs.viewport.Width = m.contentWidth()
		m.logs.viewport.Height = m.contentHeight()
		m.refreshResults()
		m.refreshLogView()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		if m.historyRow >= len(m.snapshot.Scans) {
			m.historyRow = max(0, len(m.snapshot.Scans)-1)
		}
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	if next, cmd, handled := m.handleScanMsg(msg); handled {
		return next, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelInFlight()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
				m.log.WithError(err).Warn("save prefs failed")
			}
		}
		m.refreshResults()
		return m, nil

	case key.Matches(msg, m.keys.ViewHistory):
		m.screen = ScreenHistory
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.screen = ScreenLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Escape):
		m.screen = ScreenScan
		return m, nil
	}

	switch m.screen {
	case ScreenHistory:
		return m.handleHistoryKey(msg)
	case ScreenLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleScanKey(msg)
	}
}

// handleTick processes the UI refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.screen == ScreenLogs && m.logs.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.uiTick))
	return m, tea.Batch(cmds...)
}

// renderMain renders header, command bar and the active screen.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current screen.
func (m Model) renderContent() string {
	var body string
	switch m.screen {
	case ScreenHistory:
		body = m.renderHistory()
	case ScreenLogs:
		body = m.renderLogs()
	default:
		body = m.renderScan()
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.contentHeight()).
		MaxHeight(m.contentHeight()).
		Render(body)
}

func (m Model) contentWidth() int {
	return max(m.width-2, 10)
}

// contentHeight leaves room for the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if m.cancelCycle != nil {
		m.cancelCycle()
	}
	return err
}
