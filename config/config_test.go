package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mtraver/sensor-stats/ingest"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config is invalid: %v", err)
	}

	if diff := cmp.Diff(cfg.IngestOptions(), ingest.DefaultOptions()); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
	if cfg.Window != 100 {
		t.Errorf("Got window %d, want 100", cfg.Window)
	}
	if cfg.ContinueOnError {
		t.Error("Default config should abort on the first bad file")
	}
}

func TestLoad(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		want     func() Config
	}{
		{
			name:     "empty",
			contents: "",
			want:     Default,
		},
		{
			name:     "files_only",
			contents: "files:\n  - a.csv\n  - b.csv\n",
			want: func() Config {
				c := Default()
				c.Files = []string{"a.csv", "b.csv"}
				return c
			},
		},
		{
			name: "everything",
			contents: `files: [x.csv]
bounds:
  min: 0
  max: 50
anomaly_threshold: 0.75
window: 20
continue_on_error: true
cronspec: "@every 1m"
cache_ttl: 5m
`,
			want: func() Config {
				return Config{
					Files:            []string{"x.csv"},
					Bounds:           Bounds{Min: 0, Max: 50},
					AnomalyThreshold: 0.75,
					Window:           20,
					ContinueOnError:  true,
					CronSpec:         "@every 1m",
					CacheTTL:         5 * time.Minute,
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Load(writeConfig(t, c.contents))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(got, c.want()); diff != "" {
				t.Errorf("Unexpected result (-got +want):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"missing_file", filepath.Join(t.TempDir(), "nope.yaml")},
		{"unknown_key", writeConfig(t, "windw: 10\n")},
		{"bad_type", writeConfig(t, "window: lots\n")},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(c.path); err == nil {
				t.Error("Expected error, got no error")
			}
		})
	}
}

func TestLoadInfiniteBoundsInvalid(t *testing.T) {
	cfg, err := Load(writeConfig(t, "bounds:\n  min: -.inf\n  max: .inf\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsInf(cfg.Bounds.Max, 1) {
		t.Fatalf("Got max %v, want +Inf", cfg.Bounds.Max)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for infinite bounds, got no error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"no_files", func(c *Config) { c.Files = nil }, false},
		{"min_equals_max", func(c *Config) { c.Bounds = Bounds{Min: 5, Max: 5} }, false},
		{"min_above_max", func(c *Config) { c.Bounds = Bounds{Min: 99, Max: 1} }, false},
		{"zero_window", func(c *Config) { c.Window = 0 }, false},
		{"window_one", func(c *Config) { c.Window = 1 }, true},
		{"threshold_above_one", func(c *Config) { c.AnomalyThreshold = 1.5 }, false},
		{"threshold_negative", func(c *Config) { c.AnomalyThreshold = -0.1 }, false},
		{"threshold_nan", func(c *Config) { c.AnomalyThreshold = math.NaN() }, false},
		{"negative_ttl", func(c *Config) { c.CacheTTL = -time.Second }, false},
		{"infinite_max", func(c *Config) { c.Bounds.Max = math.Inf(1) }, false},
		{"infinite_min", func(c *Config) { c.Bounds.Min = math.Inf(-1) }, false},
		{"cronspec_standard", func(c *Config) { c.CronSpec = "*/5 * * * *" }, true},
		{"cronspec_descriptor", func(c *Config) { c.CronSpec = "@every 1m" }, true},
		{"cronspec_bogus", func(c *Config) { c.CronSpec = "bogus" }, false},
		{"cronspec_seconds_field", func(c *Config) { c.CronSpec = "0 */5 * * * *" }, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.modify(&cfg)
			err := cfg.Validate()
			if err != nil && c.valid {
				t.Errorf("Unexpected error: %v", err)
			} else if err == nil && !c.valid {
				t.Error("Expected error, got no error")
			}
		})
	}
}
