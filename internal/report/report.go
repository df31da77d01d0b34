// Package report writes finished scans to disk.
package report

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/five82/molar/internal/annotate"
	"github.com/five82/molar/internal/dashboard"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the on-disk record of one scan.
type Report struct {
	ID       string             `json:"id" yaml:"id"`
	Filename string             `json:"filename" yaml:"filename"`
	ScanID   string             `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	SavedAt  time.Time          `json:"saved_at" yaml:"saved_at"`
	Image    string             `json:"image,omitempty" yaml:"image,omitempty"`
	Analysis dashboard.Analysis `json:"analysis" yaml:"analysis"`
}

// Result names the files written by Export.
type Result struct {
	ReportPath string
	ImagePath  string
}

// Exporter writes reports and annotated images into a directory.
type Exporter struct {
	dir      string
	format   string
	renderer annotate.Renderer
	width    int
	now      func() time.Time
}

// NewExporter builds an Exporter. width is the PNG width; zero keeps the capture size.
func NewExporter(dir, format string, renderer annotate.Renderer, width int) *Exporter {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatJSON {
		format = FormatYAML
	}
	if renderer == nil {
		renderer = annotate.DrawRenderer{}
	}
	return &Exporter{dir: dir, format: format, renderer: renderer, width: width, now: time.Now}
}

// Export writes scan-<ULID>.<format> and, when image bytes are present, scan-<ULID>.png.
func (e *Exporter) Export(analysis dashboard.Analysis, image []byte, scanID string) (Result, error) {
	if strings.TrimSpace(e.dir) == "" {
		return Result{}, fmt.Errorf("export dir not configured")
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create export dir: %w", err)
	}

	savedAt := e.now()
	id, err := newID(savedAt)
	if err != nil {
		return Result{}, fmt.Errorf("generate report id: %w", err)
	}
	base := filepath.Join(e.dir, "scan-"+id)

	var res Result
	if len(image) > 0 {
		preds, _ := analysis.ValidPredictions()
		png, err := e.render(image, preds)
		if err != nil {
			return Result{}, err
		}
		res.ImagePath = base + ".png"
		if err := os.WriteFile(res.ImagePath, png, 0o644); err != nil {
			return Result{}, fmt.Errorf("write image: %w", err)
		}
	}

	rep := Report{
		ID:       id,
		Filename: analysis.Filename,
		ScanID:   scanID,
		SavedAt:  savedAt,
		Analysis: analysis,
	}
	if res.ImagePath != "" {
		rep.Image = filepath.Base(res.ImagePath)
	}
	data, err := e.encode(rep)
	if err != nil {
		return Result{}, err
	}
	res.ReportPath = base + "." + e.format
	if err := os.WriteFile(res.ReportPath, data, 0o644); err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}
	return res, nil
}

func (e *Exporter) render(image []byte, preds []dashboard.Prediction) ([]byte, error) {
	out, err := e.renderer.Render(image, preds, e.width)
	if err == nil {
		return out, nil
	}
	if _, isDraw := e.renderer.(annotate.DrawRenderer); isDraw {
		return nil, fmt.Errorf("render image: %w", err)
	}
	out, fallbackErr := annotate.DrawRenderer{}.Render(image, preds, e.width)
	if fallbackErr != nil {
		return nil, fmt.Errorf("render image: %w", err)
	}
	return out, nil
}

func (e *Exporter) encode(rep Report) ([]byte, error) {
	if e.format == FormatJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	}
	data, err := yaml.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return data, nil
}

// Load reads a report written by Export.
func Load(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}
	var rep Report
	if strings.EqualFold(filepath.Ext(path), "."+FormatJSON) {
		err = json.Unmarshal(data, &rep)
	} else {
		err = yaml.Unmarshal(data, &rep)
	}
	if err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}

// RecommendationsText formats recommendations as a bullet list for the clipboard.
func RecommendationsText(a dashboard.Analysis) string {
	if len(a.Recommendations) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range a.Recommendations {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(r))
		b.WriteByte('\n')
	}
	return b.String()
}

func newID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
