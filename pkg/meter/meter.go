package meter

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
	"github.com/hydrosim/hydrosim-go/pkg/pipe"
)

// Simulation constants.
const (
	// TickInterval is the default wall-clock interval between ticks.
	TickInterval = 100 * time.Millisecond

	// TickSeconds is the simulated time integrated by one tick.
	TickSeconds = 0.1

	// TransmissionFactor is the share of inlet flow reaching the outlet.
	TransmissionFactor = 0.9

	// LitersPerCubicMeter converts m³ to liters.
	LitersPerCubicMeter = 1000.0

	// logEveryTicks is how often an active meter logs its state (5 s at the default interval).
	logEveryTicks = 50
)

// DefaultGeometry is the segment used for zero-valued inlet or outlet config.
var DefaultGeometry = pipe.Geometry{
	Diameter:  0.015,
	Length:    0.15,
	Roughness: 0.00005,
}

// Status is the accumulation state of a meter.
type Status uint8

const (
	// StatusInactive pauses accumulation and forces the outlet to zero.
	StatusInactive Status = iota

	// StatusActive integrates outlet flow into the counter.
	StatusActive
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "INACTIVE"
	case StatusActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Meter.
type Config struct {
	// Inlet and Outlet are the segment geometries. Zero values use DefaultGeometry.
	Inlet  pipe.Geometry
	Outlet pipe.Geometry

	// TickInterval overrides the wall-clock tick period. Each tick still
	// integrates TickSeconds of flow.
	TickInterval time.Duration

	// Logger receives operational debug output. Nil disables it.
	Logger *slog.Logger

	// EventLogger receives lifecycle events. Nil disables capture.
	EventLogger log.Logger

	// OwnerID and DeviceKey tag log output and events.
	OwnerID   int
	DeviceKey string
}

// Reading is the set of values a display needs from a meter.
type Reading struct {
	// Counter is the accumulated volume in liters.
	Counter int64

	// InletFlow is the current inlet flow rate (m³/s).
	InletFlow float64

	// MaxFlow is the inlet's maximum flow rate (m³/s).
	MaxFlow float64
}

// Meter is a simulated water meter.
type Meter struct {
	config Config
	logger *slog.Logger
	events log.Logger

	inlet  *pipe.Segment
	outlet *pipe.Segment

	active  atomic.Bool
	counter atomic.Int64
	ticks   atomic.Uint64

	// accMu pairs accumulator updates with the counter store.
	accMu       sync.Mutex
	accumulator float64

	// lifeMu serializes Start, Stop and Shutdown.
	lifeMu   sync.Mutex
	running  atomic.Bool
	shutdown bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an inactive meter with a zero counter and starts its tick
// goroutine.
func New(cfg Config) *Meter {
	if cfg.Inlet == (pipe.Geometry{}) {
		cfg.Inlet = DefaultGeometry
	}
	if cfg.Outlet == (pipe.Geometry{}) {
		cfg.Outlet = DefaultGeometry
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = TickInterval
	}

	m := &Meter{
		config: cfg,
		logger: cfg.Logger,
		events: log.OrNoop(cfg.EventLogger),
		inlet:  pipe.NewFromGeometry(cfg.Inlet),
		outlet: pipe.NewFromGeometry(cfg.Outlet),
	}

	m.debugLog("meter created",
		"inletMax", m.inlet.MaxFlowRate(),
		"outletMax", m.outlet.MaxFlowRate())
	m.emitLifecycle("", "CREATED", "")

	m.Start()
	return m
}

// Inlet returns the inlet segment. Commands adjust its flow rate.
func (m *Meter) Inlet() *pipe.Segment { return m.inlet }

// Outlet returns the outlet segment. Only the tick writes its flow rate.
func (m *Meter) Outlet() *pipe.Segment { return m.outlet }

// Counter returns the accumulated volume in whole liters.
func (m *Meter) Counter() int64 { return m.counter.Load() }

// Status returns the accumulation state.
func (m *Meter) Status() Status {
	if m.active.Load() {
		return StatusActive
	}
	return StatusInactive
}

// IsActive reports whether the meter accumulates on the next tick.
func (m *Meter) IsActive() bool { return m.active.Load() }

// IsRunning reports whether the tick goroutine exists.
func (m *Meter) IsRunning() bool { return m.running.Load() }

// Reading returns the counter and the inlet's current and maximum flow.
func (m *Meter) Reading() Reading {
	return Reading{
		Counter:   m.counter.Load(),
		InletFlow: m.inlet.FlowRate(),
		MaxFlow:   m.inlet.MaxFlowRate(),
	}
}

// Activate resumes accumulation from the next tick.
func (m *Meter) Activate() {
	if !m.active.Swap(true) {
		m.debugLog("meter activated")
		m.emitLifecycle(StatusInactive.String(), StatusActive.String(), "")
	}
}

// Deactivate pauses accumulation. The next tick forces the outlet to zero.
func (m *Meter) Deactivate() {
	if m.active.Swap(false) {
		m.debugLog("meter deactivated")
		m.emitLifecycle(StatusActive.String(), StatusInactive.String(), "")
	}
}

// SetCounter overrides the counter, e.g. to restore a saved reading.
// The fractional accumulator is reset to the same value.
func (m *Meter) SetCounter(v int64) {
	m.accMu.Lock()
	m.accumulator = float64(v)
	m.counter.Store(v)
	m.accMu.Unlock()

	m.debugLog("counter set", "counter", v)
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		Source:    log.SourceMeter,
		Category:  log.CategoryCommand,
		OwnerID:   m.config.OwnerID,
		DeviceKey: m.config.DeviceKey,
		Command:   &log.CommandEvent{Command: log.CommandSet, Counter: v},
	})
}

// Start launches the tick goroutine. It does nothing if the goroutine is
// already running or the meter was shut down.
func (m *Meter) Start() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.shutdown || m.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running.Store(true)

	go m.run(ctx, m.done)

	m.emitLifecycle("STOPPED", "RUNNING", "")
}

// Stop halts the tick goroutine and waits for it to exit. The meter can be
// started again.
func (m *Meter) Stop() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.stopLocked("stop")
}

// Shutdown stops the meter permanently. It is idempotent.
func (m *Meter) Shutdown() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.shutdown {
		return
	}
	m.stopLocked("shutdown")
	m.shutdown = true
	m.debugLog("meter shut down", "counter", m.counter.Load())
	m.emitLifecycle("", "SHUTDOWN", "")
}

// IsShutdown reports whether Shutdown was called.
func (m *Meter) IsShutdown() bool {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	return m.shutdown
}

func (m *Meter) stopLocked(reason string) {
	if !m.running.Swap(false) {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil

	m.emitLifecycle("RUNNING", "STOPPED", reason)
}

func (m *Meter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick advances the simulation by TickSeconds.
func (m *Meter) tick() {
	if !m.active.Load() {
		m.outlet.SetFlowRate(0)
		return
	}

	// The outlet stores at most its own max; the counter integrates out.
	out := m.inlet.FlowRate() * TransmissionFactor
	m.outlet.SetFlowRate(math.Min(out, m.outlet.MaxFlowRate()))

	m.accMu.Lock()
	m.accumulator += out * TickSeconds * LitersPerCubicMeter
	acc := m.accumulator
	m.counter.Store(int64(math.Floor(acc)))
	m.accMu.Unlock()

	if n := m.ticks.Add(1); n%logEveryTicks == 0 {
		m.debugLog("meter state",
			"inlet", m.inlet.FlowRate(),
			"outlet", m.outlet.FlowRate(),
			"accumulator", acc,
			"counter", int64(math.Floor(acc)))
	}
}

// accumulated returns the fractional accumulator.
func (m *Meter) accumulated() float64 {
	m.accMu.Lock()
	defer m.accMu.Unlock()
	return m.accumulator
}

func (m *Meter) emitLifecycle(oldState, newState, reason string) {
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		Source:    log.SourceMeter,
		Category:  log.CategoryLifecycle,
		OwnerID:   m.config.OwnerID,
		DeviceKey: m.config.DeviceKey,
		Lifecycle: &log.LifecycleEvent{
			Entity:   log.EntityMeter,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// debugLog logs a debug message if a logger is configured.
func (m *Meter) debugLog(msg string, args ...any) {
	if m.logger != nil {
		if m.config.DeviceKey != "" {
			args = append(args, "owner", m.config.OwnerID, "device", m.config.DeviceKey)
		}
		m.logger.Debug(msg, args...)
	}
}
