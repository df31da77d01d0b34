package dashboard

import (
	"testing"
	"time"
)

func TestAnalysis_ValidPredictionsDropsMalformed(t *testing.T) {
	raw := `{
		"status": "Attention needed",
		"predictions": [
			{"class": "caries", "confidence": 0.82, "box_2d": [10, 20, 110, 220]},
			{"class": "plaque", "confidence": 1.4, "box_2d": [0, 0, 5, 5]},
			{"class": "healthy", "confidence": 0.5, "box_2d": [1, 2, 3]},
			{"class": "", "confidence": 0.5, "box_2d": [1, 2, 3, 4]},
			{"class": "healthy tooth", "confidence": 0, "box_2d": [0, 0, 1, 1]}
		]
	}`
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	valid, dropped := a.ValidPredictions()
	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	if len(valid) != 2 || valid[0].Class != "caries" || valid[1].Class != "healthy tooth" {
		t.Fatalf("valid = %#v", valid)
	}
}

func TestAnalysis_ValidPredictionsEmpty(t *testing.T) {
	valid, dropped := Analysis{}.ValidPredictions()
	if valid != nil || dropped != 0 {
		t.Fatalf("ValidPredictions on empty = %v, %d", valid, dropped)
	}
}

func TestAnalysis_NormalizedStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Good", ScanGood},
		{" Needs improvement ", ScanNeedsImprovement},
		{"Attention needed", ScanAttentionNeeded},
		{"good", ScanUnknown},
		{"", ScanUnknown},
	}
	for _, tt := range tests {
		if got := (Analysis{Status: tt.in}).NormalizedStatus(); got != tt.want {
			t.Errorf("NormalizedStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoredAnalysis_ParsedTimestamp(t *testing.T) {
	s := StoredAnalysis{Timestamp: "2025-03-04T10:11:12.123456"}
	got := s.ParsedTimestamp()
	if got.IsZero() || got.Year() != 2025 || got.Month() != time.March || got.Second() != 12 {
		t.Fatalf("ParsedTimestamp = %v", got)
	}
	if !(StoredAnalysis{Timestamp: "yesterday"}).ParsedTimestamp().IsZero() {
		t.Fatalf("expected zero time for unparseable timestamp")
	}
}
