package inspect

import (
	"fmt"
	"strings"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// Unit names understood by FormatValue.
const (
	UnitLiters = "L"
	UnitFlow   = "m3/s"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes maximum flow and run state.
	ShowMetadata bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a value for display, including unit conversions.
func (f *Formatter) FormatValue(value any, unit string) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"

	case string:
		return fmt.Sprintf("%q", v)

	case int64:
		return f.formatInt64WithUnit(v, unit)

	case int:
		return f.formatInt64WithUnit(int64(v), unit)

	case float64:
		switch unit {
		case UnitFlow:
			return fmt.Sprintf("%.6f %s (%s)", v, unit, FormatFlowHumanReadable(v))
		case "":
			return fmt.Sprintf("%.2f", v)
		default:
			return fmt.Sprintf("%.2f %s", v, unit)
		}

	case meter.Status:
		return v.String()

	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatInt64WithUnit formats an int64 with optional unit and human-readable conversion.
func (f *Formatter) formatInt64WithUnit(v int64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%d", v)
	}

	base := fmt.Sprintf("%d %s", v, unit)

	switch unit {
	case UnitLiters:
		return fmt.Sprintf("%s (%s)", base, FormatVolumeHumanReadable(v))
	default:
		return base
	}
}

// FormatFlowHumanReadable formats a flow in m³/s as m³/h.
func FormatFlowHumanReadable(m3s float64) string {
	if m3s == 0 {
		return "0 m³/h"
	}
	return fmt.Sprintf("%.3f m³/h", m3s*3600)
}

// FormatVolumeHumanReadable formats a volume in liters as m³.
func FormatVolumeHumanReadable(liters int64) string {
	return fmt.Sprintf("%.3f m³", float64(liters)/1000)
}

// FormatRunState formats a record's run flag.
func FormatRunState(running bool) string {
	if running {
		return "RUNNING"
	}
	return "STOPPED"
}

// FormatDevice formats one device line.
func (f *Formatter) FormatDevice(d registry.DeviceStatus) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s, %s, in %s, out %s",
		d.Key,
		d.Status,
		f.FormatValue(d.Counter, UnitLiters),
		FormatFlowHumanReadable(d.InletFlow),
		FormatFlowHumanReadable(d.OutletFlow),
	))
	if f.ShowMetadata {
		sb.WriteString(fmt.Sprintf(" (max %s, %s)", FormatFlowHumanReadable(d.MaxFlow), FormatRunState(d.Running)))
	}
	return sb.String()
}

// FormatStatusTable formats a registry snapshot grouped by owner.
func (f *Formatter) FormatStatusTable(snapshot []registry.OwnerStatus) string {
	if len(snapshot) == 0 {
		return f.Indent(1, "(no devices)")
	}

	var sb strings.Builder
	for _, owner := range snapshot {
		var total int64
		for _, d := range owner.Devices {
			total += d.Counter
		}
		sb.WriteString(fmt.Sprintf("Owner %d: %d device(s), %s\n",
			owner.Owner, len(owner.Devices), f.FormatValue(total, UnitLiters)))
		for _, d := range owner.Devices {
			sb.WriteString(f.Indent(1, f.FormatDevice(d)))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
