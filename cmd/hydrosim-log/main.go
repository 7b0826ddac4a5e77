// Command hydrosim-log is a tool for viewing and analyzing hydrosim event logs.
//
// Event logs are CBOR streams written by hydrosim when run with the
// -event-log flag (or HYDROSIM_LOGGING_EVENT_LOG).
//
// Usage:
//
//	hydrosim-log <command> [flags] <file.hlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	hydrosim-log view run.hlog
//
//	# View only readings of one device
//	hydrosim-log view --category reading --owner 1 --device kitchen run.hlog
//
//	# Export to CSV
//	hydrosim-log export --format csv -o run.csv run.hlog
//
//	# Keep one run and save to new file
//	hydrosim-log filter --run-id 3f2a... -o single.hlog run.hlog
//
//	# Show statistics
//	hydrosim-log stats run.hlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hydrosim/hydrosim-go/cmd/hydrosim-log/commands"
)

const usage = `hydrosim-log - hydrosim Event Log Analyzer

Usage:
  hydrosim-log <command> [flags] <file.hlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "hydrosim-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// parseArgs parses args and returns the log file path.
func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func setUsage(fs *flag.FlagSet, header string) {
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, header)
		fs.PrintDefaults()
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	setUsage(fs, `hydrosim-log view - View log file in human-readable format

Usage:
  hydrosim-log view [flags] <file.hlog>

Flags:
`)

	source := fs.String("source", "", "Filter by source (meter, registry, simulator)")
	category := fs.String("category", "", "Filter by category (lifecycle, reading, command, error)")
	owner := fs.String("owner", "", "Filter by owner ID")
	device := fs.String("device", "", "Filter by device key")

	path := parseArgs(fs, args)

	filter := commands.ViewFilter{DeviceKey: *device}

	if *source != "" {
		s, err := commands.ParseSourceFlag(*source)
		if err != nil {
			fatal(err)
		}
		filter.Source = &s
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if *owner != "" {
		o, err := commands.ParseOwnerFlag(*owner)
		if err != nil {
			fatal(err)
		}
		filter.OwnerID = &o
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	setUsage(fs, `hydrosim-log export - Export log file to JSON or CSV format

Usage:
  hydrosim-log export [flags] <file.hlog>

Flags:
`)

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := parseArgs(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	setUsage(fs, `hydrosim-log filter - Filter log file and write to new file

Usage:
  hydrosim-log filter [flags] <file.hlog>

Flags:
`)

	var opts commands.FilterOptions
	fs.StringVar(&opts.Output, "o", "", "Output file (required)")
	fs.StringVar(&opts.RunID, "run-id", "", "Filter by run ID")
	fs.StringVar(&opts.Owner, "owner", "", "Filter by owner ID")
	fs.StringVar(&opts.DeviceKey, "device", "", "Filter by device key")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Source, "source", "", "Filter by source (meter, registry, simulator)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (lifecycle, reading, command, error)")

	path := parseArgs(fs, args)

	if opts.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	setUsage(fs, `hydrosim-log stats - Show statistics about the log file

Usage:
  hydrosim-log stats <file.hlog>

`)

	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
