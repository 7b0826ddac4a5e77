package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultInterval is how often the textfile is rewritten.
const DefaultInterval = 5 * time.Second

// TextfileExporter periodically writes metrics to a file in the Prometheus
// text format for node-exporter's textfile collector.
type TextfileExporter struct {
	path     string
	interval time.Duration
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewTextfileExporter creates an exporter for source writing to path.
// A non-positive interval uses DefaultInterval; logger may be nil.
func NewTextfileExporter(source StatusSource, path string, interval time.Duration, logger *slog.Logger) (*TextfileExporter, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(source)); err != nil {
		return nil, fmt.Errorf("registering collector: %w", err)
	}

	return &TextfileExporter{
		path:     path,
		interval: interval,
		gatherer: reg,
		logger:   logger,
	}, nil
}

// Write gathers and writes the metrics once. The file is replaced atomically.
func (e *TextfileExporter) Write() error {
	if err := prometheus.WriteToTextfile(e.path, e.gatherer); err != nil {
		return fmt.Errorf("writing %s: %w", e.path, err)
	}
	return nil
}

// Run writes the metrics every interval until ctx is cancelled, then writes
// a final snapshot. Write errors are logged and do not stop the loop.
func (e *TextfileExporter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := e.Write(); err != nil {
				e.warn("final metrics write failed", err)
			}
			return
		case <-ticker.C:
			if err := e.Write(); err != nil {
				e.warn("metrics write failed", err)
			}
		}
	}
}

func (e *TextfileExporter) warn(msg string, err error) {
	if e.logger != nil {
		e.logger.Warn(msg, "path", e.path, "error", err)
	}
}
