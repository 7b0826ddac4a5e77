package simulator

import (
	"context"
	"log/slog"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// Renderer turns a reading into a visual artifact, such as a gauge image.
type Renderer interface {
	Render(ctx context.Context, owner registry.OwnerID, key registry.DeviceKey, reading meter.Reading) error
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(ctx context.Context, owner registry.OwnerID, key registry.DeviceKey, reading meter.Reading) error

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, owner registry.OwnerID, key registry.DeviceKey, reading meter.Reading) error {
	return f(ctx, owner, key, reading)
}

// RenderLoop periodically reads every device, records a reading event and
// hands the reading to the renderer. Renderer errors are logged and the
// loop continues.
type RenderLoop struct {
	devices  Devices
	renderer Renderer
	delay    time.Duration
	interval time.Duration
	logger   *slog.Logger
	events   log.Logger
}

// NewRenderLoop creates a render loop over devices.
func NewRenderLoop(devices Devices, cfg Config) *RenderLoop {
	cfg.applyDefaults()
	return &RenderLoop{
		devices:  devices,
		renderer: cfg.Renderer,
		delay:    cfg.RenderDelay,
		interval: cfg.RenderInterval,
		logger:   cfg.Logger,
		events:   log.OrNoop(cfg.EventLogger),
	}
}

// RenderOnce runs one round and returns the number of renderer failures.
func (l *RenderLoop) RenderOnce(ctx context.Context) int {
	failures := 0
	for _, d := range l.devices.Devices() {
		reading := d.Meter.Reading()

		l.events.Log(log.Event{
			Timestamp: time.Now(),
			Source:    log.SourceSimulator,
			Category:  log.CategoryReading,
			OwnerID:   int(d.Owner),
			DeviceKey: string(d.Key),
			Reading: &log.ReadingEvent{
				Counter:    reading.Counter,
				InletFlow:  reading.InletFlow,
				OutletFlow: d.Meter.Outlet().FlowRate(),
				MaxFlow:    reading.MaxFlow,
				Active:     d.Meter.IsActive(),
			},
		})

		if l.renderer == nil {
			continue
		}
		if err := l.renderer.Render(ctx, d.Owner, d.Key, reading); err != nil {
			failures++
			if l.logger != nil {
				l.logger.Error("render failed", "owner", d.Owner, "device", d.Key, "error", err)
			}
			l.events.Log(log.Event{
				Timestamp: time.Now(),
				Source:    log.SourceSimulator,
				Category:  log.CategoryError,
				OwnerID:   int(d.Owner),
				DeviceKey: string(d.Key),
				Error:     &log.ErrorEventData{Message: err.Error(), Context: "render"},
			})
		}
	}
	return failures
}

// Run waits for the settle delay, then renders every interval until ctx is
// cancelled.
func (l *RenderLoop) Run(ctx context.Context) {
	if l.delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.delay):
		}
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.RenderOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
