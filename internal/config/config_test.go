package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "JOBS_FILE", "REPORT_STORE", "SQLITE_PATH",
		"REPORT_GATE_CAPACITY", "REPORT_TIMEOUT", "REPORT_PDF_TIMEOUT", "REPORT_OUTPUT_DIR",
		"REPORT_FORMAT", "NOTIFY_WEBHOOK_URL", "RATE_LIMIT_ENABLED", "RATE_LIMIT_LIMIT",
		"RATE_LIMIT_WINDOW", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 1, cfg.Gate.Capacity)
	assert.Equal(t, "html", cfg.Report.Format)
	assert.Equal(t, 5*time.Minute, cfg.Report.Timeout)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: 9000
store: sqlite
sqlite_path: /tmp/r.db
gate:
  capacity: 3
report:
  format: xlsx
  output_dir: /tmp/out
  timeout: 2m
rate_limit:
  enabled: false
  limit: 5
  window: 30m
`)
	t.Setenv("REPORT_GATE_CAPACITY", "4")
	t.Setenv("REPORT_FORMAT", "pdf")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/r.db", cfg.SQLitePath)
	assert.Equal(t, 4, cfg.Gate.Capacity, "env wins over YAML")
	assert.Equal(t, "pdf", cfg.Report.Format)
	assert.Equal(t, "/tmp/out", cfg.Report.OutputDir)
	assert.Equal(t, 2*time.Minute, cfg.Report.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Report.PDFTimeout, "unset YAML keys keep defaults")
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("REPORT_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/reports")
	t.Setenv("REPORT_TIMEOUT", "45s")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.example.com/reports")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 45*time.Second, cfg.Report.Timeout)
	assert.Equal(t, "https://hooks.example.com/reports", cfg.NotifyWebhookURL)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"PORT": "http"}, "invalid PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "Port"},
		{"zero capacity", map[string]string{"REPORT_GATE_CAPACITY": "0"}, "Capacity"},
		{"unknown store", map[string]string{"REPORT_STORE": "redis"}, "Store"},
		{"postgres without url", map[string]string{"REPORT_STORE": "postgres"}, "DatabaseURL"},
		{"unknown format", map[string]string{"REPORT_FORMAT": "docx"}, "Format"},
		{"bad timeout", map[string]string{"REPORT_TIMEOUT": "soon"}, "invalid REPORT_TIMEOUT"},
		{"bad webhook", map[string]string{"NOTIFY_WEBHOOK_URL": "not a url"}, "NotifyWebhookURL"},
		{"bad bool", map[string]string{"RATE_LIMIT_ENABLED": "maybe"}, "invalid RATE_LIMIT_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "port: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse config YAML")
}
