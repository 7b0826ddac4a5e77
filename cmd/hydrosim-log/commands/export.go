package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hydrosim/hydrosim-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "run_id", "source", "category", "owner", "device", "type", "counter_l", "inlet_m3s", "outlet_m3s"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		eventType := "unknown"
		var counter, inlet, outlet string
		switch {
		case event.Lifecycle != nil:
			eventType = event.Lifecycle.NewState
		case event.Reading != nil:
			eventType = "reading"
			counter = strconv.FormatInt(event.Reading.Counter, 10)
			inlet = strconv.FormatFloat(event.Reading.InletFlow, 'g', -1, 64)
			outlet = strconv.FormatFloat(event.Reading.OutletFlow, 'g', -1, 64)
		case event.Command != nil:
			eventType = event.Command.Command
		case event.Error != nil:
			eventType = "error"
		}

		owner := ""
		if event.DeviceKey != "" {
			owner = strconv.Itoa(event.OwnerID)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.RunID,
			event.Source.String(),
			event.Category.String(),
			owner,
			event.DeviceKey,
			eventType,
			counter,
			inlet,
			outlet,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
