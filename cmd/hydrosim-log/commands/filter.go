package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	RunID     string
	Owner     string
	DeviceKey string
	TimeStart string
	TimeEnd   string
	Source    string
	Category  string
}

// RunFilter filters the log file and writes matching events to a new file.
// A summary line is written to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if n := logger.Dropped(); n > 0 {
		return fmt.Errorf("failed to write %d events to %s", n, opts.Output)
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}

func buildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		RunID:     opts.RunID,
		DeviceKey: opts.DeviceKey,
	}

	if opts.Owner != "" {
		owner, err := ParseOwnerFlag(opts.Owner)
		if err != nil {
			return filter, err
		}
		filter.OwnerID = &owner
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Source != "" {
		s, err := parseSource(opts.Source)
		if err != nil {
			return filter, err
		}
		filter.Source = &s
	}

	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}

	return filter, nil
}
