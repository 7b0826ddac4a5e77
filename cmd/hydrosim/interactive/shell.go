// Package interactive provides the interactive command-line interface
// for hydrosim.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/hydrosim/hydrosim-go/pkg/devicekey"
	"github.com/hydrosim/hydrosim-go/pkg/inspect"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
	"github.com/hydrosim/hydrosim-go/pkg/simulator"
)

// Shell handles interactive mode for hydrosim.
type Shell struct {
	reg       *registry.Registry
	commander *simulator.Commander
	formatter *inspect.Formatter
	rl        *readline.Instance
	out       io.Writer
}

// New creates a new interactive shell on the terminal. The shell is
// usable once Bind has attached the devices.
func New() (*Shell, error) {
	return newReadlineShell(&readline.Config{
		Prompt:          "hydrosim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

func newReadlineShell(cfg *readline.Config) (*Shell, error) {
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(out io.Writer) *Shell {
	return &Shell{
		formatter: inspect.NewFormatter(),
		out:       out,
	}
}

// Bind attaches the registry and the commander driving the selected device.
func (s *Shell) Bind(reg *registry.Registry, commander *simulator.Commander) {
	s.reg = reg
	s.commander = commander
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop. It returns when ctx is done,
// input ends or the user quits; the latter two call cancel.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := s.rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readErr:
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		case line := <-lines:
			if quit := s.Execute(line); quit {
				return
			}
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "status", "s":
		fmt.Fprint(s.out, s.formatter.FormatStatusTable(s.reg.SnapshotStatus()))

	case "up", "+", "down", "-", "next", "right", "prev", "left":
		command, _ := simulator.ParseCommand(cmd)
		s.cmdApply(command)

	case "select", "sel":
		s.cmdSelect(args)

	case "add", "a":
		s.cmdAdd(args)

	case "remove", "rm":
		s.cmdRemove(args)

	case "reading", "r":
		s.cmdReading(args)

	case "set":
		s.cmdSet(args)

	case "activate", "deactivate":
		s.cmdActivate(cmd == "activate", args)

	case "start":
		s.reg.StartAll()
		fmt.Fprintln(s.out, "All devices started")

	case "stop-all", "pause":
		s.reg.StopAll()
		fmt.Fprintln(s.out, "All devices stopped")

	case "quit", "exit", "q", "stop":
		fmt.Fprintln(s.out, "Exiting...")
		_ = s.commander.Apply(simulator.CmdStop)
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
hydrosim Commands:
  Flow (selected device):
    up, +              - Increase inlet flow by 1/50 of the maximum
    down, -            - Decrease inlet flow by 1/50 of the maximum
    next, prev         - Select the next/previous device
    select <owner/key> - Select a device

  Devices:
    status             - Show all devices
    add <owner> [key]  - Add a device (random key if omitted)
    remove <owner/key> - Remove a device
    remove <owner>     - Remove all devices of an owner
    reading <owner/key>- Show a device reading
    set <owner/key> <liters> - Restore a device counter
    activate <owner/key>, deactivate <owner/key>

  Registry:
    start              - Start all devices
    stop-all           - Stop all devices (resumable with start)

  General:
    help               - Show this help
    quit, stop         - Stop the simulation and exit`)
}

func (s *Shell) cmdApply(cmd simulator.Command) {
	if err := s.commander.Apply(cmd); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	d, err := s.commander.Selected()
	if err != nil {
		return
	}
	fmt.Fprintf(s.out, "%d/%s %s\n", d.Owner, d.Key, inspect.FormatGauge(d.Meter.Reading(), 0))
}

func (s *Shell) cmdSelect(args []string) {
	p, ok := s.devicePath(args, "select <owner/key>")
	if !ok {
		return
	}
	if err := s.commander.Select(p.Owner, p.Key); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Selected %s\n", p)
}

func (s *Shell) cmdAdd(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: add <owner> [key]")
		return
	}
	p, err := inspect.ParsePath(args[0])
	if err != nil || !p.IsPartial {
		fmt.Fprintf(s.out, "Invalid owner: %s\n", args[0])
		return
	}

	key := registry.DeviceKey("")
	if len(args) > 1 {
		key = registry.DeviceKey(args[1])
	} else {
		key, _ = devicekey.New(p.Owner)
	}

	if err := s.reg.AddDevice(p.Owner, key); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added %d/%s\n", p.Owner, key)
}

func (s *Shell) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: remove <owner/key> | remove <owner>")
		return
	}
	p, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	if p.IsPartial {
		n := len(s.reg.ListDevices(p.Owner))
		s.reg.RemoveAllForOwner(p.Owner)
		fmt.Fprintf(s.out, "Removed %d device(s) of owner %d\n", n, p.Owner)
		return
	}
	if err := s.reg.RemoveDevice(p.Owner, p.Key); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Removed %s\n", p)
}

func (s *Shell) cmdReading(args []string) {
	p, ok := s.devicePath(args, "reading <owner/key>")
	if !ok {
		return
	}
	v, err := s.reg.Reading(p.Owner, p.Key)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s: %s\n", p, s.formatter.FormatValue(v, inspect.UnitLiters))
}

func (s *Shell) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: set <owner/key> <liters>")
		return
	}
	p, ok := s.devicePath(args[:1], "set <owner/key> <liters>")
	if !ok {
		return
	}
	liters, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid liters: %s\n", args[1])
		return
	}
	m, err := s.reg.Meter(p.Owner, p.Key)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	m.SetCounter(liters)
	fmt.Fprintf(s.out, "%s counter set to %d L\n", p, liters)
}

func (s *Shell) cmdActivate(activate bool, args []string) {
	p, ok := s.devicePath(args, "activate|deactivate <owner/key>")
	if !ok {
		return
	}
	m, err := s.reg.Meter(p.Owner, p.Key)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if activate {
		m.Activate()
	} else {
		m.Deactivate()
	}
	fmt.Fprintf(s.out, "%s %s\n", p, m.Status())
}

// devicePath parses the first argument as an owner/key path.
func (s *Shell) devicePath(args []string, usage string) (*inspect.Path, bool) {
	if len(args) < 1 {
		fmt.Fprintf(s.out, "Usage: %s\n", usage)
		return nil, false
	}
	p, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, false
	}
	if p.IsPartial {
		fmt.Fprintf(s.out, "Usage: %s\n", usage)
		return nil, false
	}
	return p, true
}
