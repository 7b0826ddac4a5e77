package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hydrosim/hydrosim-go/pkg/inspect"
	"github.com/hydrosim/hydrosim-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsBySource   map[log.Source]int
	EventsByCategory map[log.Category]int
	Runs             map[string]int
	Devices          map[DeviceID]*DeviceStats
	Commands         map[string]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceID identifies a device in the log.
type DeviceID struct {
	Owner int
	Key   string
}

// DeviceStats holds statistics for a single device across all runs.
type DeviceStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	LastCounter int64
	InletFlows  []float64

	delivered int64

	// baseline holds the last known counter per run ID.
	baseline map[string]int64
}

// Delivered returns the liters counted across all runs. Counters are
// compared within a run only; a drop or a SET restore starts a new baseline.
func (d *DeviceStats) Delivered() int64 {
	return d.delivered
}

func (d *DeviceStats) addReading(runID string, counter int64) {
	if d.baseline == nil {
		d.baseline = make(map[string]int64)
	}
	if prev, ok := d.baseline[runID]; ok && counter > prev {
		d.delivered += counter - prev
	}
	d.baseline[runID] = counter
	d.LastCounter = counter
}

func (d *DeviceStats) rebase(runID string, counter int64) {
	if d.baseline == nil {
		d.baseline = make(map[string]int64)
	}
	d.baseline[runID] = counter
}

// MeanInletFlow returns the average sampled inlet flow in m³/s.
func (d *DeviceStats) MeanInletFlow() float64 {
	if len(d.InletFlows) == 0 {
		return 0
	}
	return stat.Mean(d.InletFlows, nil)
}

// PeakInletFlow returns the highest sampled inlet flow in m³/s.
func (d *DeviceStats) PeakInletFlow() float64 {
	if len(d.InletFlows) == 0 {
		return 0
	}
	return floats.Max(d.InletFlows)
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsBySource:   make(map[log.Source]int),
		EventsByCategory: make(map[log.Category]int),
		Runs:             make(map[string]int),
		Devices:          make(map[DeviceID]*DeviceStats),
		Commands:         make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsBySource[event.Source]++
	s.EventsByCategory[event.Category]++
	if event.RunID != "" {
		s.Runs[event.RunID]++
	}

	// Track time range
	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Command != nil {
		s.Commands[event.Command.Command]++
	}
	if event.Error != nil {
		s.Errors++
	}

	if event.DeviceKey == "" {
		return
	}
	id := DeviceID{Owner: event.OwnerID, Key: event.DeviceKey}
	dev, ok := s.Devices[id]
	if !ok {
		dev = &DeviceStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Devices[id] = dev
	}
	dev.Events++
	if event.Timestamp.After(dev.LastSeen) {
		dev.LastSeen = event.Timestamp
	}

	if r := event.Reading; r != nil {
		dev.addReading(event.RunID, r.Counter)
		dev.InletFlows = append(dev.InletFlows, r.InletFlow)
	}
	if c := event.Command; c != nil && c.Command == log.CommandSet {
		dev.rebase(event.RunID, c.Counter)
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== hydrosim Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Source:")
	for _, src := range []log.Source{log.SourceMeter, log.SourceRegistry, log.SourceSimulator} {
		if count := stats.EventsBySource[src]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", src.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryLifecycle, log.CategoryReading, log.CategoryCommand, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}

	if len(stats.Commands) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Commands:")
		names := make([]string, 0, len(stats.Commands))
		for name := range stats.Commands {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-12s %d\n", name+":", stats.Commands[name])
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Devices: %d\n", len(stats.Devices))
	if len(stats.Devices) > 0 {
		ids := make([]DeviceID, 0, len(stats.Devices))
		for id := range stats.Devices {
			ids = append(ids, id)
		}
		slices.SortFunc(ids, func(a, b DeviceID) int {
			if a.Owner != b.Owner {
				return a.Owner - b.Owner
			}
			return strings.Compare(a.Key, b.Key)
		})

		fmt.Fprintln(w)
		for _, id := range ids {
			dev := stats.Devices[id]
			duration := dev.LastSeen.Sub(dev.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%d/%s] %d events, duration %s\n", id.Owner, shortenKey(id.Key), dev.Events, duration)
			if n := len(dev.InletFlows); n > 0 {
				fmt.Fprintf(w, "           Readings: %d, last %d L, delivered %s\n",
					n, dev.LastCounter, inspect.FormatVolumeHumanReadable(dev.Delivered()))
				fmt.Fprintf(w, "           Inlet: mean %s, peak %s\n",
					inspect.FormatFlowHumanReadable(dev.MeanInletFlow()),
					inspect.FormatFlowHumanReadable(dev.PeakInletFlow()))
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
