// Package commands implements the hydrosim-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hydrosim/hydrosim-go/pkg/inspect"
	"github.com/hydrosim/hydrosim-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Source    *log.Source
	Category  *log.Category
	OwnerID   *int
	DeviceKey string
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		Source:    f.Source,
		Category:  f.Category,
		OwnerID:   f.OwnerID,
		DeviceKey: f.DeviceKey,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [run:id] SOURCE device Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Lifecycle != nil:
		typeLabel = "Lifecycle"
	case event.Reading != nil:
		typeLabel = "Reading"
	case event.Command != nil:
		typeLabel = "Command"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	device := "-"
	if event.DeviceKey != "" {
		device = fmt.Sprintf("%d/%s", event.OwnerID, shortenKey(event.DeviceKey))
	}

	fmt.Fprintf(w, "%s [run:%s] %-9s %s %s\n", ts, shortenRunID(event.RunID), event.Source, device, typeLabel)

	switch {
	case event.Lifecycle != nil:
		formatLifecycleDetails(w, event.Lifecycle)
	case event.Reading != nil:
		formatReadingDetails(w, event.Reading)
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// shortenKey trims derived device keys for display.
func shortenKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

func formatLifecycleDetails(w io.Writer, lc *log.LifecycleEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", lc.Entity)
	if lc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", lc.OldState, lc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", lc.NewState)
	}
	if lc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", lc.Reason)
	}
}

func formatReadingDetails(w io.Writer, r *log.ReadingEvent) {
	fmt.Fprintf(w, "  Counter: %d L (%s)\n", r.Counter, inspect.FormatVolumeHumanReadable(r.Counter))
	fmt.Fprintf(w, "  Inlet: %s  Outlet: %s\n",
		inspect.FormatFlowHumanReadable(r.InletFlow), inspect.FormatFlowHumanReadable(r.OutletFlow))
	if r.MaxFlow > 0 {
		fmt.Fprintf(w, "  Max: %s\n", inspect.FormatFlowHumanReadable(r.MaxFlow))
	}
	fmt.Fprintf(w, "  Active: %t\n", r.Active)
}

func formatCommandDetails(w io.Writer, c *log.CommandEvent) {
	fmt.Fprintf(w, "  Command: %s\n", c.Command)
	if c.Command == log.CommandSet {
		fmt.Fprintf(w, "  Counter: %d L\n", c.Counter)
	}
	if c.FlowBefore != 0 || c.FlowAfter != 0 {
		fmt.Fprintf(w, "  Flow: %s -> %s\n",
			inspect.FormatFlowHumanReadable(c.FlowBefore), inspect.FormatFlowHumanReadable(c.FlowAfter))
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseSourceFlag parses a source string from command-line flag (case-insensitive).
func ParseSourceFlag(s string) (log.Source, error) {
	return parseSource(s)
}

func parseSource(s string) (log.Source, error) {
	switch strings.ToLower(s) {
	case "meter":
		return log.SourceMeter, nil
	case "registry":
		return log.SourceRegistry, nil
	case "simulator":
		return log.SourceSimulator, nil
	default:
		return 0, fmt.Errorf("invalid source: %s (must be meter, registry, or simulator)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "lifecycle":
		return log.CategoryLifecycle, nil
	case "reading":
		return log.CategoryReading, nil
	case "command":
		return log.CategoryCommand, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be lifecycle, reading, command, or error)", s)
	}
}

// ParseOwnerFlag parses a decimal owner ID.
func ParseOwnerFlag(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid owner: %s", s)
	}
	return v, nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
