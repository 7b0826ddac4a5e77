package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// Devices is the registry view the simulator works on.
// *registry.Registry implements it.
type Devices interface {
	Devices() []registry.Device
}

// Command is an operator command.
type Command uint8

const (
	// CmdIncrease raises the selected inlet flow by one step.
	CmdIncrease Command = iota + 1
	// CmdDecrease lowers the selected inlet flow by one step.
	CmdDecrease
	// CmdNext selects the next device.
	CmdNext
	// CmdPrev selects the previous device.
	CmdPrev
	// CmdStop requests a graceful stop of the simulation.
	CmdStop
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdIncrease:
		return "INCREASE"
	case CmdDecrease:
		return "DECREASE"
	case CmdNext:
		return "NEXT"
	case CmdPrev:
		return "PREV"
	case CmdStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// ParseCommand maps a command word to a Command.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "+", "increase":
		return CmdIncrease, nil
	case "down", "-", "decrease":
		return CmdDecrease, nil
	case "next", "right":
		return CmdNext, nil
	case "prev", "left":
		return CmdPrev, nil
	case "stop", "q":
		return CmdStop, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
}

// Commander errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoDevice       = errors.New("no device selected")
)

// Commander applies commands to the selected device. The selection follows
// the registry's device order and survives additions and removals.
type Commander struct {
	mu sync.Mutex

	devices Devices
	stop    context.CancelFunc
	logger  *slog.Logger
	events  log.Logger

	selected registry.Device
	hasSel   bool
}

// NewCommander creates a Commander. stop is called for CmdStop and may be nil.
func NewCommander(devices Devices, stop context.CancelFunc, cfg Config) *Commander {
	return &Commander{
		devices: devices,
		stop:    stop,
		logger:  cfg.Logger,
		events:  log.OrNoop(cfg.EventLogger),
	}
}

// Selected returns the selected device, falling back to the first one when
// the selection is gone.
func (c *Commander) Selected() (registry.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	devices := c.devices.Devices()
	i := c.indexLocked(devices)
	if i < 0 {
		return registry.Device{}, ErrNoDevice
	}
	return devices[i], nil
}

// Select makes (owner, key) the selected device.
func (c *Commander) Select(owner registry.OwnerID, key registry.DeviceKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.devices.Devices() {
		if d.Owner == owner && d.Key == key {
			c.selected, c.hasSel = d, true
			return nil
		}
	}
	return fmt.Errorf("select %d/%s: %w", owner, key, registry.ErrNotFound)
}

// Apply executes cmd.
func (c *Commander) Apply(cmd Command) error {
	if cmd == CmdStop {
		c.emit(cmd, registry.Device{}, 0, 0)
		c.debugLog("stop requested")
		if c.stop != nil {
			c.stop()
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	devices := c.devices.Devices()
	i := c.indexLocked(devices)
	if i < 0 {
		return ErrNoDevice
	}

	switch cmd {
	case CmdIncrease, CmdDecrease:
		d := devices[i]
		inlet := d.Meter.Inlet()
		before := inlet.FlowRate()
		var after float64
		if cmd == CmdIncrease {
			after = inlet.Increase()
		} else {
			after = inlet.Decrease()
		}
		c.selected, c.hasSel = d, true
		c.emit(cmd, d, before, after)
		c.debugLog("flow adjusted", "owner", d.Owner, "device", d.Key, "command", cmd, "before", before, "after", after)

	case CmdNext, CmdPrev:
		step := 1
		if cmd == CmdPrev {
			step = -1
		}
		j := (i + step + len(devices)) % len(devices)
		c.selected, c.hasSel = devices[j], true
		c.emit(cmd, devices[j], 0, 0)
		c.debugLog("device selected", "owner", devices[j].Owner, "device", devices[j].Key)

	default:
		return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd)
	}
	return nil
}

func (c *Commander) indexLocked(devices []registry.Device) int {
	if len(devices) == 0 {
		return -1
	}
	if c.hasSel {
		for i, d := range devices {
			if d.Owner == c.selected.Owner && d.Key == c.selected.Key {
				return i
			}
		}
	}
	c.selected, c.hasSel = devices[0], true
	return 0
}

func (c *Commander) emit(cmd Command, d registry.Device, before, after float64) {
	c.events.Log(log.Event{
		Timestamp: time.Now(),
		Source:    log.SourceSimulator,
		Category:  log.CategoryCommand,
		OwnerID:   int(d.Owner),
		DeviceKey: string(d.Key),
		Command: &log.CommandEvent{
			Command:    cmd.String(),
			FlowBefore: before,
			FlowAfter:  after,
		},
	})
}

func (c *Commander) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
