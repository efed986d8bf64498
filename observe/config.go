package observe

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/evalops/observe/exporters"
)

var (
	ErrMissingServiceName     = errors.New("observe: service_name must be set")
	ErrInvalidSamplePct       = errors.New("observe: tracing sample_pct must lie in [0, 1]")
	ErrInvalidTracingExporter = errors.New("observe: unsupported tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unsupported metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unsupported log level")

	ErrNilObserver          = errors.New("observe: nil observer")
	ErrMissingOperationName = errors.New("observe: operation has no name")
)

// LogLevels lists the accepted logging levels, "" meaning info.
var LogLevels = []string{"", "debug", "info", "warn", "error"}

// Config is the observe section of an evalops configuration file.
type Config struct {
	ServiceName string        `yaml:"service_name"`
	Version     string        `yaml:"version"`
	Tracing     TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`

	// Writer replaces stdout for exporters and stderr for JSON logs.
	Writer io.Writer `yaml:"-"`
	// Registerer replaces the default prometheus registry.
	Registerer prometheus.Registerer `yaml:"-"`
}

// TracingConfig selects a span exporter and a sampling ratio.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// MetricsConfig selects a metric reader.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// LoggingConfig sets the minimum level of report logs.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// Validate checks the enabled sections only; a disabled section may hold
// anything.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if t := c.Tracing; t.Enabled {
		if err := oneOf(ErrInvalidTracingExporter, t.Exporter, exporters.TracingNames()); err != nil {
			return err
		}
		if t.SamplePct < 0 || t.SamplePct > 1 {
			return fmt.Errorf("%w, got %g", ErrInvalidSamplePct, t.SamplePct)
		}
	}
	if m := c.Metrics; m.Enabled {
		if err := oneOf(ErrInvalidMetricsExporter, m.Exporter, exporters.MetricsNames()); err != nil {
			return err
		}
	}
	if l := c.Logging; l.Enabled {
		return oneOf(ErrInvalidLogLevel, l.Level, LogLevels)
	}
	return nil
}

func oneOf(sentinel error, got string, accepted []string) error {
	if slices.Contains(accepted, got) {
		return nil
	}
	return fmt.Errorf("%w: %q", sentinel, got)
}
