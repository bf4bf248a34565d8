// Package config holds everything that controls a sensorstats run. A Config is
// built once, from defaults and an optional YAML file, and passed to the batch
// runner explicitly.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	cron "github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mtraver/sensor-stats/ingest"
	"github.com/mtraver/sensor-stats/trend"
)

type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Config struct {
	// Files are processed in order.
	Files []string `yaml:"files"`

	// Raw values outside Bounds are dropped; those inside are normalized onto [0, 1].
	Bounds Bounds `yaml:"bounds"`

	// Normalized values strictly above this are counted as anomalies.
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`

	// Number of consecutive values per moving-average window.
	Window int `yaml:"window"`

	// If false, a file that can't be opened aborts the whole run. If true it's
	// logged and the remaining files are still processed.
	ContinueOnError bool `yaml:"continue_on_error"`

	// If set, the batch is rerun on this cron schedule instead of once.
	CronSpec string `yaml:"cronspec"`

	// How long results for an unchanged file are reused in scheduled mode.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

func Default() Config {
	opts := ingest.DefaultOptions()
	return Config{
		Files: []string{
			"small_sensor_data_2024.csv",
			"medium_sensor_data_2024.csv",
			"large_sensor_data_2024.csv",
		},
		Bounds: Bounds{
			Min: opts.Bounds.Min,
			Max: opts.Bounds.Max,
		},
		AnomalyThreshold: opts.AnomalyThreshold,
		Window:           trend.DefaultWindow,
		CacheTTL:         time.Hour,
	}
}

// Load reads the YAML file at path on top of Default. Keys missing from the
// file keep their default values and unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	p, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}

	f, err := os.Open(p)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Files) == 0 {
		return errors.New("no input files given")
	}
	if math.IsInf(c.Bounds.Min, 0) || math.IsInf(c.Bounds.Max, 0) {
		return fmt.Errorf("bounds must be finite: got min %v max %v", c.Bounds.Min, c.Bounds.Max)
	}
	if !(c.Bounds.Min < c.Bounds.Max) {
		return fmt.Errorf("bounds min must be less than max: got min %v max %v", c.Bounds.Min, c.Bounds.Max)
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be at least 1: got %d", c.Window)
	}
	if !(c.AnomalyThreshold >= 0 && c.AnomalyThreshold <= 1) {
		return fmt.Errorf("anomaly threshold must be in [0, 1]: got %v", c.AnomalyThreshold)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative: got %v", c.CacheTTL)
	}
	if c.CronSpec != "" {
		if _, err := cron.ParseStandard(c.CronSpec); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", c.CronSpec, err)
		}
	}
	return nil
}

func (c Config) IngestOptions() ingest.Options {
	return ingest.Options{
		Bounds: ingest.Bounds{
			Min: c.Bounds.Min,
			Max: c.Bounds.Max,
		},
		AnomalyThreshold: c.AnomalyThreshold,
	}
}
