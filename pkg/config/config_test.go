package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/pipe"
)

const sampleYAML = `
version: "1.1"
inlet:
  diameter: 0.02
  length: 0.2
  roughness: 0.00005
tick_interval: 50ms
render_interval: 1s
stop_at_liters: 200
generator:
  enabled: false
  seed: 7
logging:
  level: debug
  event_log: /tmp/run.hlog
devices:
  - owner: 1
    key: kitchen
  - owner: 1
    key: garden
    reading: 1500
`

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Version != "1.1" {
		t.Errorf("Version = %q, want 1.1", cfg.Version)
	}
	if cfg.Inlet != (pipe.Geometry{Diameter: 0.02, Length: 0.2, Roughness: 0.00005}) {
		t.Errorf("Inlet = %+v", cfg.Inlet)
	}
	if cfg.Outlet != meter.DefaultGeometry {
		t.Errorf("Outlet = %+v, want default", cfg.Outlet)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.TickInterval)
	}
	if cfg.RenderInterval != time.Second {
		t.Errorf("RenderInterval = %v, want 1s", cfg.RenderInterval)
	}
	if cfg.StopAtLiters != 200 {
		t.Errorf("StopAtLiters = %d, want 200", cfg.StopAtLiters)
	}
	if cfg.Generator.Enabled || cfg.Generator.Seed != 7 {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
	if cfg.Generator.Interval != time.Second {
		t.Errorf("Generator.Interval = %v, want default 1s", cfg.Generator.Interval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.EventLog != "/tmp/run.hlog" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if len(cfg.Devices) != 2 || cfg.Devices[1].Key != "garden" || cfg.Devices[1].Reading != 1500 {
		t.Errorf("Devices = %+v", cfg.Devices)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("inlet: [1, 2")); err == nil {
		t.Error("Parse should fail on malformed YAML")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrosim.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HYDROSIM_LOGGING_LEVEL", "warn")
	t.Setenv("HYDROSIM_TICK_INTERVAL", "20ms")
	t.Setenv("HYDROSIM_OUTLET_DIAMETER", "0.01")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %v, want 20ms", cfg.TickInterval)
	}
	if cfg.Outlet.Diameter != 0.01 {
		t.Errorf("Outlet.Diameter = %v, want 0.01", cfg.Outlet.Diameter)
	}
	if cfg.Logging.EventLog != "/tmp/run.hlog" {
		t.Errorf("unset env var overwrote EventLog: %q", cfg.Logging.EventLog)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.TickInterval != meter.TickInterval {
		t.Errorf("TickInterval = %v, want default", cfg.TickInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("HYDROSIM_TICK_INTERVAL", "soon")
	if _, err := Load(""); err == nil {
		t.Error("Load should fail on an unparsable override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"incompatible version", func(c *Config) { c.Version = "2.0" }, "incompatible schema version"},
		{"bad version", func(c *Config) { c.Version = "v1" }, "invalid version"},
		{"zero diameter", func(c *Config) { c.Inlet.Diameter = 0 }, "inlet.diameter"},
		{"negative length", func(c *Config) { c.Outlet.Length = -1 }, "outlet.length"},
		{"negative roughness", func(c *Config) { c.Inlet.Roughness = -0.1 }, "inlet.roughness"},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, "tick_interval"},
		{"zero render", func(c *Config) { c.RenderInterval = 0 }, "render_interval"},
		{"negative stop", func(c *Config) { c.StopAtLiters = -5 }, "stop_at_liters"},
		{"generator interval", func(c *Config) { c.Generator.Interval = 0 }, "generator.interval"},
		{"metrics interval", func(c *Config) { c.Metrics.File = "m.prom"; c.Metrics.Interval = 0 }, "metrics.interval"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "unknown log level"},
		{"empty key", func(c *Config) { c.Devices = []DeviceConfig{{Owner: 1}} }, "key is required"},
		{"duplicate key", func(c *Config) {
			c.Devices = []DeviceConfig{{Owner: 1, Key: "a"}, {Owner: 1, Key: "a"}}
		}, "duplicate key"},
		{"too many devices", func(c *Config) {
			for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
				c.Devices = append(c.Devices, DeviceConfig{Owner: 2, Key: k})
			}
		}, "more than 5 devices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateDisabledGenerator(t *testing.T) {
	cfg := Default()
	cfg.Generator.Enabled = false
	cfg.Generator.Interval = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMeterConfig(t *testing.T) {
	cfg := Default()
	cfg.TickInterval = 10 * time.Millisecond
	mc := cfg.MeterConfig()
	if mc.Inlet != cfg.Inlet || mc.Outlet != cfg.Outlet || mc.TickInterval != cfg.TickInterval {
		t.Errorf("MeterConfig() = %+v", mc)
	}
}
