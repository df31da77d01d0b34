package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_WritesToFileAtLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "molar.log")

	logger, closeLog, err := New(Options{Path: logPath, Level: "warn"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer func() { _ = closeLog() }()
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level = %v, want warn", logger.GetLevel())
	}

	logger.WithFields(Fields{"request_id": "abc"}).Info("hidden")
	logger.WithFields(Fields{"request_id": "abc"}).Warn("visible")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Fatalf("log contains info line below level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "abc") {
		t.Fatalf("log = %q, want warn line with request id", out)
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger, closeLog, err := New(Options{Level: "chatty"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close without file returned error: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", logger.GetLevel())
	}
}

func TestNew_CloseReleasesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "molar.log")
	logger, closeLog, err := New(Options{Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("before close")
	if err := closeLog(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "before close") {
		t.Fatalf("log = %q, want line written before close", data)
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b || len(a) != 36 {
		t.Fatalf("NewRequestID = %q, %q, want distinct uuids", a, b)
	}
}
