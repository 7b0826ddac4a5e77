// Package log provides structured event capture for the meter simulator.
//
// This package defines the Logger interface and the Event type used to
// record what happened to meters and registries over a simulation run:
// lifecycle transitions, periodic readings, flow commands and errors. It is
// separate from operational logging (slog); event capture produces a
// machine-readable trace that cmd/hydrosim-log can view and summarise.
//
// # Basic Usage
//
//	// Development: mirror events to the console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// Keep a binary trace of the run
//	cfg.EventLogger, _ = log.NewFileLogger("/var/lib/hydrosim/run.hlog")
//
//	// Both
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Each event carries exactly one payload:
//   - Lifecycle: a meter, record or registry changed state (LifecycleEvent)
//   - Reading: a sampled counter and flow readout (ReadingEvent)
//   - Command: a flow command applied to an inlet (CommandEvent)
//   - Error: a recoverable failure (ErrorEventData)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer map keys and
// use the .hlog extension.
package log
