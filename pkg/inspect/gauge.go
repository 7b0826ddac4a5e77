package inspect

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// DefaultGaugeWidth is the bar width of FormatGauge.
const DefaultGaugeWidth = 20

// FormatGauge draws a meter face: a five-digit odometer and a flow bar
// scaled to the inlet maximum.
func FormatGauge(r meter.Reading, width int) string {
	if width <= 0 {
		width = DefaultGaugeWidth
	}

	frac := 0.0
	if r.MaxFlow > 0 {
		frac = r.InletFlow / r.MaxFlow
	}
	frac = min(max(frac, 0), 1)
	filled := int(frac*float64(width) + 0.5)

	return fmt.Sprintf("[%05d L] |%s%s| %3.0f%% %s",
		r.Counter%100000,
		strings.Repeat("#", filled),
		strings.Repeat("-", width-filled),
		frac*100,
		FormatFlowHumanReadable(r.InletFlow))
}

// TextRenderer writes a gauge line per reading. It is safe for concurrent use.
type TextRenderer struct {
	mu    sync.Mutex
	w     io.Writer
	width int
}

// NewTextRenderer creates a TextRenderer writing to w.
func NewTextRenderer(w io.Writer, width int) *TextRenderer {
	return &TextRenderer{w: w, width: width}
}

// Render writes one gauge line.
func (r *TextRenderer) Render(_ context.Context, owner registry.OwnerID, key registry.DeviceKey, reading meter.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintf(r.w, "%d/%s %s\n", owner, key, FormatGauge(reading, r.width))
	return err
}
