// Package config loads simulator settings from a YAML file with
// environment overrides.
//
// Precedence, lowest first: Default, the YAML file, HYDROSIM_* environment
// variables. Command-line flags are applied by the binaries on top.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/pipe"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
	"github.com/hydrosim/hydrosim-go/pkg/version"
)

// EnvPrefix prefixes every environment override, e.g. HYDROSIM_LOGGING_LEVEL.
const EnvPrefix = "HYDROSIM"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all simulator configuration.
type Config struct {
	// Version is the schema version of the file. Empty means version.Current.
	Version string `yaml:"version" ignored:"true"`

	Inlet  pipe.Geometry `yaml:"inlet"`
	Outlet pipe.Geometry `yaml:"outlet"`

	TickInterval   time.Duration `yaml:"tick_interval" split_words:"true"`
	RenderInterval time.Duration `yaml:"render_interval" split_words:"true"`

	// StopAtLiters stops the simulator once any device reaches this reading.
	// Zero disables it.
	StopAtLiters int64 `yaml:"stop_at_liters" split_words:"true"`

	Generator GeneratorConfig `yaml:"generator"`
	Logging   LogConfig       `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// Devices are registered at startup.
	Devices []DeviceConfig `yaml:"devices" ignored:"true"`
}

// GeneratorConfig configures the random flow generator.
type GeneratorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`

	// Seed fixes the random sequence. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level    string `yaml:"level"`
	EventLog string `yaml:"event_log" split_words:"true"`
}

// MetricsConfig holds metrics textfile configuration.
type MetricsConfig struct {
	File     string        `yaml:"file"`
	Interval time.Duration `yaml:"interval"`
}

// DeviceConfig describes one device registered at startup.
type DeviceConfig struct {
	Owner int    `yaml:"owner"`
	Key   string `yaml:"key"`

	// Reading restores the counter, in liters.
	Reading int64 `yaml:"reading"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version:        version.Current,
		Inlet:          meter.DefaultGeometry,
		Outlet:         meter.DefaultGeometry,
		TickInterval:   meter.TickInterval,
		RenderInterval: 3 * time.Second,
		Generator: GeneratorConfig{
			Enabled:  true,
			Interval: time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Interval: 5 * time.Second,
		},
	}
}

// Parse applies YAML data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load reads the YAML file at path (skipped when empty), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HYDROSIM_* environment variables. Unset
// variables leave fields unchanged.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}
	return nil
}

// Validate checks the configuration. All problems are reported together,
// wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if err := version.Check(c.Version); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateGeometry("inlet", c.Inlet)...)
	errs = append(errs, validateGeometry("outlet", c.Outlet)...)

	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}
	if c.RenderInterval <= 0 {
		errs = append(errs, errors.New("render_interval must be positive"))
	}
	if c.StopAtLiters < 0 {
		errs = append(errs, errors.New("stop_at_liters must not be negative"))
	}
	if c.Generator.Enabled && c.Generator.Interval <= 0 {
		errs = append(errs, errors.New("generator.interval must be positive"))
	}
	if c.Metrics.File != "" && c.Metrics.Interval <= 0 {
		errs = append(errs, errors.New("metrics.interval must be positive"))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	perOwner := make(map[int]map[string]bool)
	for i, d := range c.Devices {
		if d.Key == "" {
			errs = append(errs, fmt.Errorf("devices[%d]: key is required", i))
			continue
		}
		keys := perOwner[d.Owner]
		if keys == nil {
			keys = make(map[string]bool)
			perOwner[d.Owner] = keys
		}
		if keys[d.Key] {
			errs = append(errs, fmt.Errorf("devices[%d]: duplicate key %q for owner %d", i, d.Key, d.Owner))
		}
		keys[d.Key] = true
		if len(keys) == registry.MaxDevicesPerOwner+1 {
			errs = append(errs, fmt.Errorf("owner %d: more than %d devices", d.Owner, registry.MaxDevicesPerOwner))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func validateGeometry(name string, g pipe.Geometry) []error {
	var errs []error
	if g.Diameter <= 0 {
		errs = append(errs, fmt.Errorf("%s.diameter must be positive", name))
	}
	if g.Length <= 0 {
		errs = append(errs, fmt.Errorf("%s.length must be positive", name))
	}
	if g.Roughness < 0 {
		errs = append(errs, fmt.Errorf("%s.roughness must not be negative", name))
	}
	return errs
}

// MeterConfig returns the meter template for the registry.
func (c *Config) MeterConfig() meter.Config {
	return meter.Config{
		Inlet:        c.Inlet,
		Outlet:       c.Outlet,
		TickInterval: c.TickInterval,
	}
}

// ParseLevel maps a level name to an slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
