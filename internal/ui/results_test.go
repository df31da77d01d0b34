package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/molar/internal/annotate"
	"github.com/five82/molar/internal/dashboard"
)

func TestPresentStatus(t *testing.T) {
	tests := []struct {
		status   string
		label    string
		severity string
	}{
		{"Good", "Good", SeverityGood},
		{"Needs improvement", "Needs Improvement", SeverityWarning},
		{"Attention needed", "Attention Needed", SeverityDanger},
		{"", "Uncertain", SeverityUnknown},
		{"good", "Uncertain", SeverityUnknown},
	}
	for _, tt := range tests {
		got := presentStatus(dashboard.Analysis{Status: tt.status})
		assert.Equal(t, tt.label, got.Label, "status %q", tt.status)
		assert.Equal(t, tt.severity, got.Severity, "status %q", tt.status)
	}
}

func TestPrimaryIssueFallback(t *testing.T) {
	assert.Equal(t, noIssueText, primaryIssue(dashboard.Analysis{}))
	assert.Equal(t, "Tartar", primaryIssue(dashboard.Analysis{PrimaryIssue: " Tartar "}))
}

func TestDetectionRows_SkipsZeroCounts(t *testing.T) {
	rows, ok := detectionRows(dashboard.Analysis{
		DetectionCounts: map[string]int{"tartar": 1, "caries": 0, "plaque": 3, "healthy": 2},
		Confidences:     map[string]float64{"plaque": 74.5, "healthy": 0},
	})
	require.True(t, ok)
	require.Len(t, rows, 3)

	assert.Equal(t, "healthy", rows[0].Class)
	assert.Empty(t, rows[0].Confidence, "zero confidence is hidden")
	assert.Equal(t, annotate.KindHealthy, rows[0].Kind)

	assert.Equal(t, "Plaque", rows[1].Label)
	assert.Equal(t, 3, rows[1].Count)
	assert.Equal(t, "75% confidence", rows[1].Confidence)

	assert.Equal(t, "Tartar", rows[2].Label)
	assert.Equal(t, "?", rows[2].Icon)
}

func TestDetectionRows_HidesOnlyExactZero(t *testing.T) {
	rows, ok := detectionRows(dashboard.Analysis{
		DetectionCounts: map[string]int{"caries": 0, "tartar": -1},
	})
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "tartar", rows[0].Class)
	assert.Equal(t, -1, rows[0].Count)
}

func TestDetectionRows_NoCounts(t *testing.T) {
	rows, ok := detectionRows(dashboard.Analysis{})
	assert.False(t, ok)
	assert.Empty(t, rows)

	rows, ok = detectionRows(dashboard.Analysis{DetectionCounts: map[string]int{}})
	assert.True(t, ok)
	assert.Empty(t, rows)
}

func TestResultsPanel_Placeholders(t *testing.T) {
	m, _ := newTestModel(t, &fakeAPI{}, 5)
	m.session.AnalysisReady(dashboard.Analysis{Status: "Good"})

	panel := m.renderResultsPanel(80)
	assert.Contains(t, panel, noIssueText)
	assert.Contains(t, panel, noDetectionsText)
	assert.Contains(t, panel, noRecommendationsText)
}

func TestPreviewSize(t *testing.T) {
	cols, rows := previewSize(annotate.Size{W: 640, H: 480}, 80, 100)
	assert.Equal(t, 80, cols)
	assert.Equal(t, 30, rows)

	cols, rows = previewSize(annotate.Size{W: 640, H: 480}, 80, 15)
	assert.Equal(t, 40, cols)
	assert.Equal(t, 15, rows)

	cols, rows = previewSize(annotate.Size{}, 80, 15)
	assert.Zero(t, cols)
	assert.Zero(t, rows)
}

func TestPreview_DrawsBoxOutline(t *testing.T) {
	p := newPreview(testPNG(t))
	require.True(t, p.Ready())

	preds := []dashboard.Prediction{{Class: "plaque", Confidence: 0.5, Box: []float64{0, 0, 4, 2}}}
	out := p.Render(GetTheme("Nightfox").Styles(), preds, 20, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "┌")
	assert.Contains(t, lines[4], "┘")

	plain := p.Render(GetTheme("Nightfox").Styles(), nil, 20, 10)
	assert.NotContains(t, plain, "┌")
	assert.Contains(t, plain, "▀")
}

func TestNewPreview_BadBytes(t *testing.T) {
	p := newPreview([]byte("not an image"))
	assert.False(t, p.Ready())
	assert.Error(t, p.err)
	assert.False(t, newPreview(nil).Ready())
}
