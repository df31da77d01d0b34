package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/molar/internal/annotate"
	"github.com/five82/molar/internal/config"
	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/logging"
	"github.com/five82/molar/internal/prefs"
	"github.com/five82/molar/internal/report"
	"github.com/five82/molar/internal/scan"
	"github.com/five82/molar/internal/state"
	"github.com/five82/molar/internal/ui"
)

// Options configure the molar application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/molar/prefs.toml
	PollEvery  int    // seconds between image checks; zero uses the config value

	// Headless runs a single scan without the TUI.
	Headless bool
	// Latest skips the capture and exports the dashboard's stored analysis.
	Latest bool
	// OutDir overrides the configured export directory.
	OutDir string
	// Stdout receives the headless summary; nil uses os.Stdout.
	Stdout io.Writer
}

// components are the wired dependencies shared by both modes.
type components struct {
	cfg      config.Config
	prefs    prefs.Prefs
	log      *logrus.Logger
	closeLog func() error
	client   *dashboard.Client
	workflow *scan.Workflow
	exporter *report.Exporter
}

// Run boots the molar TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	c, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = c.closeLog() }()

	store := &state.Store{}

	// Start background device poller
	StartPoller(ctx, store, c.client, c.cfg.DeviceStatusInterval, c.log)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	uiOpts := ui.Options{
		Context:   ctx,
		Workflow:  c.workflow,
		Store:     store,
		Config:    &c.cfg,
		Exporter:  c.exporter,
		Logger:    c.log,
		Prefs:     c.prefs,
		PrefsPath: prefsPath,
	}
	c.log.Info("starting tui")
	return ui.Run(uiOpts)
}

// setup loads config and preferences, opens the log, and wires the dashboard client.
func setup(ctx context.Context, opts Options) (*components, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.PollSeconds(opts.PollEvery)
	if dir := strings.TrimSpace(opts.OutDir); dir != "" {
		cfg.ExportDir = dir
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{Path: cfg.LogPath(), Level: cfg.LogLevel, Stderr: opts.Headless})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logger.WithFields(logging.Fields{"config": cfg.String(), "headless": opts.Headless}).Info("molar starting")

	client, err := dashboard.NewClient(cfg.DashboardURL, dashboard.Options{
		Logger:      logger,
		RequestRate: cfg.RequestRate,
	})
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init dashboard client: %w", err)
	}

	if cfg.HasCredentials() {
		if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
			_ = closeLog()
			return nil, fmt.Errorf("dashboard login: %w", err)
		}
		logger.WithFields(logging.Fields{"user": cfg.Username}).Info("logged in")
	}

	workflow := scan.NewWorkflow(client, scan.Options{
		Logger:       logger,
		CaptureDelay: cfg.CaptureDelay,
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.MaxPollAttempts,
	})

	exporter := report.NewExporter(cfg.ExportDir, userPrefs.ExportFormat, annotate.NewRenderer(userPrefs.Renderer), cfg.DisplayWidth)

	return &components{
		cfg:      cfg,
		prefs:    userPrefs,
		log:      logger,
		closeLog: closeLog,
		client:   client,
		workflow: workflow,
		exporter: exporter,
	}, nil
}
