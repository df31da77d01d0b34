package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/molar/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override molar config path (optional)")
	pollSeconds := flag.Int("poll", 0, "seconds between image checks (optional, defaults to 2s)")
	headless := flag.Bool("headless", false, "run one scan without the TUI and print a summary")
	latest := flag.Bool("latest", false, "export the dashboard's latest stored analysis instead of capturing")
	outDir := flag.String("out", "", "override the report export directory (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Headless:   *headless || *latest,
		Latest:     *latest,
		OutDir:     *outDir,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	var err error
	if opts.Headless {
		err = app.RunHeadless(ctx, opts)
	} else {
		err = app.Run(ctx, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "molar: %v\n", err)
		return 1
	}
	return 0
}
