// Command hydrosim simulates a fleet of water meters.
//
// Each device is a pair of pipe segments whose outlet follows the inlet
// through a Darcy-Weisbach solver. Meters accumulate liters every tick
// while a random generator varies the inlet flows and a render loop
// prints gauge lines.
//
// Usage:
//
//	hydrosim [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-log-level string     Log level: debug, info, warn, error
//	-event-log string     Write CBOR events to this file
//	-metrics-file string  Write Prometheus metrics to this textfile
//	-stop-at int          Stop once any meter reaches this many liters
//	-seed uint            Fix the flow generator's random sequence
//	-no-generator         Change flows through commands only
//	-interactive          Enable interactive command shell
//
// Examples:
//
//	# Run the default single device until interrupted
//	hydrosim
//
//	# Run a configured fleet and capture events
//	hydrosim -config fleet.yaml -event-log run.hlog
//
//	# Drive flows by hand
//	hydrosim -interactive -no-generator
//
//	# Stop after one cubic meter and export metrics
//	hydrosim -stop-at 1000 -metrics-file /var/lib/node_exporter/hydrosim.prom
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hydrosim/hydrosim-go/cmd/hydrosim/interactive"
	"github.com/hydrosim/hydrosim-go/pkg/config"
	"github.com/hydrosim/hydrosim-go/pkg/devicekey"
	"github.com/hydrosim/hydrosim-go/pkg/inspect"
	"github.com/hydrosim/hydrosim-go/pkg/log"
	"github.com/hydrosim/hydrosim-go/pkg/metrics"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
	"github.com/hydrosim/hydrosim-go/pkg/simulator"
)

// DefaultOwner owns the device created when no devices are configured.
const DefaultOwner registry.OwnerID = 1

// Flags holds the command-line settings that override the config file.
type Flags struct {
	ConfigFile  string
	LogLevel    string
	EventLog    string
	MetricsFile string
	StopAt      int64
	Seed        uint64
	NoGenerator bool
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.EventLog, "event-log", "", "Write CBOR events to this file")
	flag.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flag.Int64Var(&flags.StopAt, "stop-at", 0, "Stop once any meter reaches this many liters (0 = never)")
	flag.Uint64Var(&flags.Seed, "seed", 0, "Fix the flow generator's random sequence (0 = random)")
	flag.BoolVar(&flags.NoGenerator, "no-generator", false, "Change flows through commands only")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Enable interactive command shell")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hydrosim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var out io.Writer = os.Stdout
	var shell *interactive.Shell
	if flags.Interactive {
		shell, err = interactive.New()
		if err != nil {
			return err
		}
		out = shell.Stdout()
	}

	logger := setupLogging(out, level)

	events, closeEvents, err := setupEventLogging(cfg.Logging.EventLog, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	logger.Info("hydrosim starting", "run_id", events.RunID(), "devices", len(cfg.Devices))

	reg := registry.New(registry.Config{
		Meter:       cfg.MeterConfig(),
		Logger:      logger,
		EventLogger: events,
	})
	defer reg.Close()

	if err := addDevices(reg, cfg.Devices); err != nil {
		return err
	}
	reg.StartAll()

	if cfg.Metrics.File != "" {
		exporter, err := metrics.NewTextfileExporter(reg, cfg.Metrics.File, cfg.Metrics.Interval, logger)
		if err != nil {
			return err
		}
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		metricsDone := make(chan struct{})
		go func() {
			defer close(metricsDone)
			exporter.Run(metricsCtx)
		}()
		defer func() {
			stopMetrics()
			<-metricsDone
		}()
	}

	simCfg := simulator.Config{
		GenerateInterval: cfg.Generator.Interval,
		DisableGenerator: !cfg.Generator.Enabled,
		Seed:             cfg.Generator.Seed,
		RenderInterval:   cfg.RenderInterval,
		Renderer:         inspect.NewTextRenderer(out, inspect.DefaultGaugeWidth),
		StopAtLiters:     cfg.StopAtLiters,
		Logger:           logger,
		EventLogger:      events,
	}
	sim := simulator.New(reg, simCfg)

	shellDone := make(chan struct{})
	if shell != nil {
		shell.Bind(reg, simulator.NewCommander(reg, cancel, simCfg))
		go func() {
			defer close(shellDone)
			shell.Run(ctx, cancel)
		}()
	} else {
		close(shellDone)
	}

	err = sim.Run(ctx)
	// The shell returns once ctx is done; wait so its terminal is restored.
	cancel()
	<-shellDone
	if err != nil {
		return err
	}

	reg.StopAll()
	fmt.Fprint(out, inspect.NewFormatter().FormatStatusTable(reg.SnapshotStatus()))
	if sim.LimitReached() {
		logger.Info("volume limit reached", "liters", cfg.StopAtLiters)
	}
	return nil
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Logging.Level = flags.LogLevel
		case "event-log":
			cfg.Logging.EventLog = flags.EventLog
		case "metrics-file":
			cfg.Metrics.File = flags.MetricsFile
		case "stop-at":
			cfg.StopAtLiters = flags.StopAt
		case "seed":
			cfg.Generator.Seed = flags.Seed
		case "no-generator":
			cfg.Generator.Enabled = !flags.NoGenerator
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// setupEventLogging stamps events with a fresh run ID and fans them out to
// the debug log and, if path is set, a CBOR event file.
func setupEventLogging(path string, logger *slog.Logger) (*log.RunLogger, func(), error) {
	sinks := []log.Logger{log.NewSlogAdapter(logger)}
	closeFn := func() {}

	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("event log: %w", err)
		}
		sinks = append(sinks, fl)
		closeFn = func() {
			if n := fl.Dropped(); n > 0 {
				logger.Warn("events dropped", "count", n)
			}
			if err := fl.Close(); err != nil {
				logger.Warn("closing event log", "error", err)
			}
		}
	}

	return log.NewRunLogger(log.NewMultiLogger(sinks...), log.NewRunID()), closeFn, nil
}

// addDevices registers the configured devices, or a single default device
// when none are configured.
func addDevices(reg *registry.Registry, devices []config.DeviceConfig) error {
	if len(devices) == 0 {
		key, _ := devicekey.New(DefaultOwner)
		return reg.AddDevice(DefaultOwner, key)
	}

	for _, d := range devices {
		owner := registry.OwnerID(d.Owner)
		key := registry.DeviceKey(d.Key)
		if err := reg.AddDevice(owner, key); err != nil {
			return fmt.Errorf("device %d/%s: %w", owner, key, err)
		}
		if d.Reading > 0 {
			m, err := reg.Meter(owner, key)
			if err != nil {
				return err
			}
			m.SetCounter(d.Reading)
		}
	}
	return nil
}
