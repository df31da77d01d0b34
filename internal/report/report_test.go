package report

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/molar/internal/annotate"
	"github.com/five82/molar/internal/dashboard"
)

func sampleAnalysis() dashboard.Analysis {
	return dashboard.Analysis{
		Status:          dashboard.ScanNeedsImprovement,
		PrimaryIssue:    "Plaque build-up",
		DetectionCounts: map[string]int{"plaque": 2, "healthy": 0},
		Confidences:     map[string]float64{"plaque": 76},
		Recommendations: []string{"Floss daily", " Book a cleaning "},
		Predictions: []dashboard.Prediction{
			{Class: "plaque", Confidence: 0.76, Box: []float64{2, 2, 10, 10}},
		},
		Filename: "scan_1.jpg",
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 20))))
	return buf.Bytes()
}

func TestExport_YAMLWithImage(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "", nil, 0)
	e.now = func() time.Time { return time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC) }

	res, err := e.Export(sampleAnalysis(), testPNG(t), "s-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(res.ReportPath), "scan-"))
	assert.Equal(t, ".yaml", filepath.Ext(res.ReportPath))
	assert.Equal(t, strings.TrimSuffix(res.ReportPath, ".yaml")+".png", res.ImagePath)
	_, err = os.Stat(res.ImagePath)
	require.NoError(t, err)

	rep, err := Load(res.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, "scan_1.jpg", rep.Filename)
	assert.Equal(t, "s-1", rep.ScanID)
	assert.Equal(t, filepath.Base(res.ImagePath), rep.Image)
	assert.Equal(t, 2, rep.Analysis.DetectionCounts["plaque"])
	assert.Equal(t, []float64{2, 2, 10, 10}, rep.Analysis.Predictions[0].Box)
	assert.True(t, rep.SavedAt.Equal(e.now()))
}

func TestExport_JSONWithoutImage(t *testing.T) {
	dir := t.TempDir()
	res, err := NewExporter(dir, "JSON", nil, 0).Export(sampleAnalysis(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, ".json", filepath.Ext(res.ReportPath))
	assert.Empty(t, res.ImagePath)

	rep, err := Load(res.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, dashboard.ScanNeedsImprovement, rep.Analysis.Status)
	assert.Empty(t, rep.Image)
}

func TestExport_IDsAreUnique(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, FormatYAML, nil, 0)
	a, err := e.Export(sampleAnalysis(), nil, "")
	require.NoError(t, err)
	b, err := e.Export(sampleAnalysis(), nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ReportPath, b.ReportPath)
}

type failingRenderer struct{}

func (failingRenderer) Render([]byte, []dashboard.Prediction, int) ([]byte, error) {
	return nil, errors.New("no opencv")
}

func TestExport_FallsBackToDrawRenderer(t *testing.T) {
	res, err := NewExporter(t.TempDir(), FormatYAML, failingRenderer{}, 0).Export(sampleAnalysis(), testPNG(t), "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ImagePath)
}

func TestExport_BadImage(t *testing.T) {
	_, err := NewExporter(t.TempDir(), FormatYAML, annotate.DrawRenderer{}, 0).Export(sampleAnalysis(), []byte("junk"), "")
	require.Error(t, err)
}

func TestExport_NoDir(t *testing.T) {
	_, err := NewExporter("", FormatYAML, nil, 0).Export(sampleAnalysis(), nil, "")
	require.Error(t, err)
}

func TestRecommendationsText(t *testing.T) {
	assert.Equal(t, "- Floss daily\n- Book a cleaning\n", RecommendationsText(sampleAnalysis()))
	assert.Empty(t, RecommendationsText(dashboard.Analysis{}))
}
