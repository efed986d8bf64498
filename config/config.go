// Package config loads evalops settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/observe"
	"github.com/jonwraymond/evalops/resilience"
)

// EnvPath names the environment variable holding the default config file.
const EnvPath = "EVALOPS_CONFIG"

// ErrInvalid reports an invalid configuration value.
var ErrInvalid = errors.New("config: invalid configuration")

// FitModes lists the accepted values of ReportConfig.FitMode.
var FitModes = []string{"auto", "always", "never"}

// Config is the top-level configuration document.
type Config struct {
	Source  string         `yaml:"-"`
	Observe observe.Config `yaml:"observe"`
	Report  ReportConfig   `yaml:"report"`
}

// ReportConfig holds report defaults. Unset fields leave the report
// defaults alone; in particular caching stays on unless CacheEnabled is
// explicitly false.
type ReportConfig struct {
	CacheEnabled    *bool         `yaml:"cache_enabled"`
	SkipOperations  []string      `yaml:"skip_operations"`
	ComputeLimit    int           `yaml:"compute_limit"`
	ComputeTimeout  time.Duration `yaml:"compute_timeout"`
	DefaultPosLabel *float64      `yaml:"default_pos_label"`
	FitMode         string        `yaml:"fit_mode"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Observe: observe.Config{
			ServiceName: "evalops",
			Logging:     observe.LoggingConfig{Level: "info"},
		},
		Report: ReportConfig{
			FitMode: "auto",
		},
	}
}

// Load reads the file at path, or the file named by EVALOPS_CONFIG when
// path is empty. With neither set it returns Default(). Environment
// variables in the file are expanded; a ${VAR} that is not set is an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	log.Debugf("using config file: %s", path)

	doc, err := expandEnv(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg, err := Parse([]byte(doc))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks both sections.
func (c *Config) Validate() error {
	if err := c.Observe.Validate(); err != nil {
		return err
	}
	return c.Report.Validate()
}

// Validate checks report defaults.
func (r ReportConfig) Validate() error {
	if r.ComputeLimit < 0 {
		return fmt.Errorf("%w: compute_limit must be >= 0, got %d", ErrInvalid, r.ComputeLimit)
	}
	if r.ComputeTimeout < 0 {
		return fmt.Errorf("%w: compute_timeout must be >= 0, got %s", ErrInvalid, r.ComputeTimeout)
	}
	if r.FitMode != "" && !slices.Contains(FitModes, r.FitMode) {
		return fmt.Errorf("%w: fit_mode must be one of %v, got %q", ErrInvalid, FitModes, r.FitMode)
	}
	return nil
}

// CachingEnabled reports whether memoization is on; an unset
// cache_enabled means on.
func (r ReportConfig) CachingEnabled() bool {
	return r.CacheEnabled == nil || *r.CacheEnabled
}

// Policy returns the cache policy for these defaults.
func (r ReportConfig) Policy() cache.Policy {
	return cache.Policy{Enabled: r.CachingEnabled(), SkipOperations: slices.Clone(r.SkipOperations)}
}

// ApplyPolicy overlays the fields set in r onto p.
func (r ReportConfig) ApplyPolicy(p cache.Policy) cache.Policy {
	if r.CacheEnabled != nil {
		p.Enabled = *r.CacheEnabled
	}
	if len(r.SkipOperations) > 0 {
		p.SkipOperations = slices.Clone(r.SkipOperations)
	}
	return p
}

// Guard returns the compute guard for these defaults, or nil when neither a
// limit nor a timeout is configured.
func (r ReportConfig) Guard() cache.Guard {
	if r.ComputeLimit == 0 && r.ComputeTimeout == 0 {
		return nil
	}
	return resilience.NewGuard(resilience.GuardConfig{
		Limit:   r.ComputeLimit,
		Timeout: r.ComputeTimeout,
	})
}
