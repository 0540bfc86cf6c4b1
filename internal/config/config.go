// Package config loads the simloop driver configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the driver configuration. Durations are Go duration strings
// ("10s", "500ms"); an empty duration means "unset".
type Config struct {
	// Frequency is the tick rate in ticks per second.
	Frequency int `yaml:"frequency"`

	// Workers is the dispatcher pool size. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Entities is the number of simulated particles.
	Entities int `yaml:"entities"`

	// Duration bounds the run. Zero runs until interrupted.
	Duration string `yaml:"duration"`

	// ReportInterval is how often telemetry is logged.
	ReportInterval string `yaml:"report_interval"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Frequency:      60,
		Entities:       10000,
		Duration:       "10s",
		ReportInterval: "1s",
		LogLevel:       "info",
	}
}

// Load reads and parses the YAML file at path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses YAML on top of Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("frequency must be greater than zero: %d", c.Frequency))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative: %d", c.Workers))
	}
	if c.Entities < 0 {
		errs = append(errs, fmt.Errorf("entities must not be negative: %d", c.Entities))
	}
	if _, err := parseDuration(c.Duration); err != nil {
		errs = append(errs, fmt.Errorf("duration: %w", err))
	}
	if d, err := parseDuration(c.ReportInterval); err != nil {
		errs = append(errs, fmt.Errorf("report_interval: %w", err))
	} else if d <= 0 {
		errs = append(errs, errors.New("report_interval must be greater than zero"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// RunFor returns the parsed Duration, zero if unset.
func (c Config) RunFor() time.Duration {
	d, _ := parseDuration(c.Duration)
	return d
}

// Report returns the parsed ReportInterval.
func (c Config) Report() time.Duration {
	d, _ := parseDuration(c.ReportInterval)
	return d
}

// Level returns the parsed LogLevel, info if unset or invalid.
func (c Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// PoolSize returns Workers, or GOMAXPROCS when Workers is zero.
func (c Config) PoolSize() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative: %s", s)
	}
	return d, nil
}
