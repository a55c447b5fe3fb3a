// Package config provides configuration loading and validation for the report service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Report store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the service configuration. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Store postgres"`
	JobsFile    string `yaml:"jobs_file"`

	Store      string `yaml:"store" validate:"oneof=memory sqlite postgres"`
	SQLitePath string `yaml:"sqlite_path" validate:"required_if=Store sqlite"`

	Gate GateConfig `yaml:"gate"`

	Report ReportConfig `yaml:"report"`

	NotifyWebhookURL string `yaml:"notify_webhook_url" validate:"omitempty,url"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// GateConfig bounds concurrent report generation.
type GateConfig struct {
	Capacity int `yaml:"capacity" validate:"min=1"`
}

// ReportConfig controls rendering and the per-report time budget.
type ReportConfig struct {
	Format     string        `yaml:"format" validate:"oneof=html pdf xlsx"`
	OutputDir  string        `yaml:"output_dir" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" validate:"min=0"`
	PDFTimeout time.Duration `yaml:"pdf_timeout" validate:"min=0"`
}

// RateLimitConfig limits report requests per owner.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit" validate:"min=1"`
	Window  time.Duration `yaml:"window" validate:"gt=0"`
	Burst   int           `yaml:"burst" validate:"min=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:       8080,
		Store:      StoreMemory,
		SQLitePath: filepath.Join("data", "reports.db"),
		Gate:       GateConfig{Capacity: 1},
		Report: ReportConfig{
			Format:     "html",
			OutputDir:  "reports",
			Timeout:    5 * time.Minute,
			PDFTimeout: 60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   10,
			Window:  time.Hour,
			Burst:   2,
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.JobsFile, "JOBS_FILE")
	setString(&c.Store, "REPORT_STORE")
	setString(&c.SQLitePath, "SQLITE_PATH")
	setString(&c.Report.Format, "REPORT_FORMAT")
	setString(&c.Report.OutputDir, "REPORT_OUTPUT_DIR")
	setString(&c.NotifyWebhookURL, "NOTIFY_WEBHOOK_URL")

	ints := []struct {
		dst *int
		key string
	}{
		{&c.Port, "PORT"},
		{&c.Gate.Capacity, "REPORT_GATE_CAPACITY"},
		{&c.RateLimit.Limit, "RATE_LIMIT_LIMIT"},
		{&c.RateLimit.Burst, "RATE_LIMIT_BURST"},
	}
	for _, v := range ints {
		if err := setInt(v.dst, v.key); err != nil {
			return err
		}
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.Report.Timeout, "REPORT_TIMEOUT"},
		{&c.Report.PDFTimeout, "REPORT_PDF_TIMEOUT"},
		{&c.RateLimit.Window, "RATE_LIMIT_WINDOW"},
	}
	for _, v := range durations {
		if err := setDuration(v.dst, v.key); err != nil {
			return err
		}
	}

	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_ENABLED: %w", err)
		}
		c.RateLimit.Enabled = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
