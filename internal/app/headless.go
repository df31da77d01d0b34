package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/molar/internal/dashboard"
	"github.com/five82/molar/internal/logging"
	"github.com/five82/molar/internal/report"
	"github.com/five82/molar/internal/scan"
)

// RunHeadless runs one scan end to end and prints a summary. With opts.Latest
// it exports the dashboard's most recent stored analysis instead of capturing.
func RunHeadless(ctx context.Context, opts Options) error {
	c, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = c.closeLog() }()
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	return headless(ctx, c.workflow, c.exporter, c.log, out, opts.Latest)
}

func headless(ctx context.Context, wf *scan.Workflow, exp *report.Exporter, log logrus.FieldLogger, out io.Writer, latest bool) error {
	var (
		analysis dashboard.Analysis
		image    []byte
		err      error
	)
	if latest {
		analysis, image, err = latestScan(ctx, wf, log)
	} else {
		analysis, image, err = captureScan(ctx, wf, out)
	}
	if err != nil {
		return err
	}

	res, err := exp.Export(analysis, image, "")
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	log.WithFields(logging.Fields{"report": res.ReportPath, "image": res.ImagePath}).Info("headless scan exported")

	printSummary(out, analysis, res)
	return nil
}

// captureScan drives a Session through capture, review and analysis.
func captureScan(ctx context.Context, wf *scan.Workflow, out io.Writer) (dashboard.Analysis, []byte, error) {
	var s scan.Session
	step := func() {
		if text := s.StepText(); text != "" {
			fmt.Fprintln(out, text)
		}
	}

	if err := s.BeginCapture(); err != nil {
		return dashboard.Analysis{}, nil, err
	}
	step()
	id, err := wf.RequestCapture(ctx)
	if err != nil {
		return dashboard.Analysis{}, nil, fmt.Errorf("capture image: %w", err)
	}
	s.CaptureQueued(id)
	step()

	filename, err := wf.WaitForImage(ctx)
	if err != nil {
		return dashboard.Analysis{}, nil, fmt.Errorf("get captured image: %w", err)
	}
	image, err := wf.LoadImage(ctx, filename)
	if err != nil {
		return dashboard.Analysis{}, nil, fmt.Errorf("get captured image: %w", err)
	}
	s.ImageReady(filename, image)
	fmt.Fprintf(out, "Captured %s\n", filename)

	if err := s.BeginAnalyze(); err != nil {
		return dashboard.Analysis{}, nil, err
	}
	analysis, err := wf.Analyze(ctx, s.Filename, s.Image, func(n int) {
		s.AdvanceAnalyze(n)
		step()
	})
	if err != nil {
		s.AnalysisFailed(err.Error())
		return dashboard.Analysis{}, nil, fmt.Errorf("analyze image: %w", err)
	}
	s.AnalysisReady(analysis)
	return *s.Analysis, s.Image, nil
}

// latestScan waits for the stored analysis and downloads its image when possible.
func latestScan(ctx context.Context, wf *scan.Workflow, log logrus.FieldLogger) (dashboard.Analysis, []byte, error) {
	stored, err := wf.WaitForAnalysis(ctx)
	if err != nil {
		return dashboard.Analysis{}, nil, fmt.Errorf("get analysis results: %w", err)
	}
	analysis := stored.Analysis
	if analysis.Filename == "" {
		return analysis, nil, nil
	}
	image, err := wf.LoadImage(ctx, analysis.Filename)
	if err != nil {
		log.WithError(err).WithFields(logging.Fields{"filename": analysis.Filename}).Warn("exporting without image")
		return analysis, nil, nil
	}
	return analysis, image, nil
}

func printSummary(out io.Writer, a dashboard.Analysis, res report.Result) {
	fmt.Fprintf(out, "Status: %s\n", a.NormalizedStatus())
	if issue := strings.TrimSpace(a.PrimaryIssue); issue != "" {
		fmt.Fprintf(out, "Primary issue: %s\n", issue)
	}

	classes := make([]string, 0, len(a.DetectionCounts))
	for class, n := range a.DetectionCounts {
		if n != 0 {
			classes = append(classes, class)
		}
	}
	sort.Strings(classes)
	if len(classes) > 0 {
		parts := make([]string, len(classes))
		for i, class := range classes {
			parts[i] = fmt.Sprintf("%s=%d", class, a.DetectionCounts[class])
		}
		fmt.Fprintf(out, "Detections: %s\n", strings.Join(parts, " "))
	}

	if recs := report.RecommendationsText(a); recs != "" {
		fmt.Fprintf(out, "Recommendations:\n%s", recs)
	}
	fmt.Fprintf(out, "Report: %s\n", res.ReportPath)
	if res.ImagePath != "" {
		fmt.Fprintf(out, "Image: %s\n", res.ImagePath)
	}
}
