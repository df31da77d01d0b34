package ui

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/five82/molar/internal/annotate"
	"github.com/five82/molar/internal/dashboard"
)

const (
	noIssueText           = "No specific issues detected"
	noDetectionsText      = "No detections available"
	noRecommendationsText = "No specific recommendations available"
)

// statusPresentation is how an overall scan status is shown.
type statusPresentation struct {
	Icon     string
	Label    string
	Severity string
}

func presentStatus(a dashboard.Analysis) statusPresentation {
	switch a.NormalizedStatus() {
	case dashboard.ScanGood:
		return statusPresentation{Icon: "✔", Label: "Good", Severity: SeverityGood}
	case dashboard.ScanNeedsImprovement:
		return statusPresentation{Icon: "▲", Label: "Needs Improvement", Severity: SeverityWarning}
	case dashboard.ScanAttentionNeeded:
		return statusPresentation{Icon: "●", Label: "Attention Needed", Severity: SeverityDanger}
	default:
		return statusPresentation{Icon: "?", Label: "Uncertain", Severity: SeverityUnknown}
	}
}

func primaryIssue(a dashboard.Analysis) string {
	if issue := strings.TrimSpace(a.PrimaryIssue); issue != "" {
		return issue
	}
	return noIssueText
}

// detectionRow is one non-zero class count.
type detectionRow struct {
	Class      string
	Label      string
	Icon       string
	Count      int
	Confidence string
	Kind       annotate.Kind
}

var classOrder = map[string]int{"healthy": 0, "plaque": 1, "caries": 2}

var classIcons = map[string]string{
	"healthy": "☺",
	"plaque":  "✱",
	"caries":  "◆",
}

// detectionRows lists classes with a non-zero count. ok is false when the
// analysis carries no counts at all.
func detectionRows(a dashboard.Analysis) (rows []detectionRow, ok bool) {
	if a.DetectionCounts == nil {
		return nil, false
	}
	for class, count := range a.DetectionCounts {
		if count == 0 {
			continue
		}
		icon, known := classIcons[class]
		if !known {
			icon = "?"
		}
		row := detectionRow{
			Class: class,
			Label: capitalize(class),
			Icon:  icon,
			Count: count,
			Kind:  annotate.KindOf(class),
		}
		if conf := a.Confidences[class]; conf != 0 {
			row.Confidence = fmt.Sprintf("%d%% confidence", int(math.Floor(conf+0.5)))
		}
		rows = append(rows, row)
	}
	slices.SortFunc(rows, func(x, y detectionRow) int {
		rx, okx := classOrder[x.Class]
		ry, oky := classOrder[y.Class]
		switch {
		case okx && oky:
			return rx - ry
		case okx:
			return -1
		case oky:
			return 1
		default:
			return strings.Compare(x.Class, y.Class)
		}
	})
	return rows, true
}

func recommendationLines(a dashboard.Analysis) []string {
	var lines []string
	for _, rec := range a.Recommendations {
		if rec = strings.TrimSpace(rec); rec != "" {
			lines = append(lines, rec)
		}
	}
	return lines
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
