package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as one structured record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}

	if event.RunID != "" {
		attrs = append(attrs, slog.String("run_id", event.RunID))
	}
	if event.DeviceKey != "" {
		attrs = append(attrs,
			slog.Int("owner", event.OwnerID),
			slog.String("device", event.DeviceKey),
		)
	}

	switch {
	case event.Lifecycle != nil:
		attrs = append(attrs,
			slog.String("entity", event.Lifecycle.Entity.String()),
			slog.String("old_state", event.Lifecycle.OldState),
			slog.String("new_state", event.Lifecycle.NewState),
		)
		if event.Lifecycle.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Lifecycle.Reason))
		}
	case event.Reading != nil:
		attrs = append(attrs,
			slog.Int64("counter_l", event.Reading.Counter),
			slog.Float64("inlet_m3s", event.Reading.InletFlow),
			slog.Float64("outlet_m3s", event.Reading.OutletFlow),
			slog.Bool("active", event.Reading.Active),
		)
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Command),
			slog.Float64("flow_before", event.Command.FlowBefore),
			slog.Float64("flow_after", event.Command.FlowAfter),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "event", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
