package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/molar/internal/config"
)

func TestSetup_LogFileClosesCleanly(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvLogLevel, "")
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	configPath := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("dashboard_url = \"http://127.0.0.1:5000\"\nlog_dir = %q\nexport_dir = %q\n", logDir, filepath.Join(dir, "scans"))
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := setup(context.Background(), Options{ConfigPath: configPath, PrefsPath: filepath.Join(dir, "prefs.toml")})
	if err != nil {
		t.Fatalf("setup returned error: %v", err)
	}
	if err := c.closeLog(); err != nil {
		t.Fatalf("closeLog returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "molar.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "molar starting") {
		t.Fatalf("log = %q, want startup line", data)
	}
}
