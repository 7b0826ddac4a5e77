package meter

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
	"github.com/hydrosim/hydrosim-go/pkg/pipe"
)

// newStoppedMeter returns a meter whose tick goroutine is stopped so the
// test can drive tick() directly.
func newStoppedMeter(t *testing.T, cfg Config) *Meter {
	t.Helper()
	m := New(cfg)
	m.Stop()
	t.Cleanup(m.Shutdown)
	return m
}

func TestNewMeter(t *testing.T) {
	m := New(Config{})
	defer m.Shutdown()

	if m.Status() != StatusInactive {
		t.Errorf("Status() = %v, want INACTIVE", m.Status())
	}
	if m.Counter() != 0 {
		t.Errorf("Counter() = %d, want 0", m.Counter())
	}
	if !m.IsRunning() {
		t.Error("new meter should be running")
	}
	if m.Inlet().Geometry() != DefaultGeometry {
		t.Errorf("inlet geometry = %+v, want %+v", m.Inlet().Geometry(), DefaultGeometry)
	}
	if m.Outlet().MaxFlowRate() <= 0 {
		t.Error("outlet max flow should be positive")
	}
}

func TestTickOneStep(t *testing.T) {
	m := newStoppedMeter(t, Config{})
	m.Activate()

	x := 0.004
	m.Inlet().SetFlowRate(x)
	m.SetCounter(10)

	m.tick()

	wantOut := math.Min(0.9*x, m.Outlet().MaxFlowRate())
	if math.Abs(m.Outlet().FlowRate()-wantOut) > 1e-15 {
		t.Errorf("outlet = %v, want %v", m.Outlet().FlowRate(), wantOut)
	}
	if math.Abs(m.accumulated()-10.36) > 1e-9 {
		t.Errorf("accumulator = %v, want 10.36", m.accumulated())
	}
	if m.Counter() != 10 {
		t.Errorf("Counter() = %d, want 10", m.Counter())
	}

	m.tick()
	m.tick()
	if m.Counter() != 11 {
		t.Errorf("after 3 ticks Counter() = %d, want 11", m.Counter())
	}
}

func TestCounterMatchesAccumulator(t *testing.T) {
	m := newStoppedMeter(t, Config{})
	m.Activate()
	m.Inlet().SetFlowRate(m.Inlet().MaxFlowRate())

	prev := m.Counter()
	for i := 0; i < 200; i++ {
		m.tick()
		c := m.Counter()
		if c < prev {
			t.Fatalf("tick %d: counter decreased from %d to %d", i, prev, c)
		}
		if want := int64(math.Floor(m.accumulated())); c != want {
			t.Fatalf("tick %d: counter = %d, floor(accumulator) = %d", i, c, want)
		}
		prev = c
	}
	if prev == 0 {
		t.Error("counter did not advance at maximum flow")
	}
}

func TestDeactivateForcesOutletZero(t *testing.T) {
	m := newStoppedMeter(t, Config{})
	m.Activate()
	m.Inlet().SetFlowRate(0.003)
	m.tick()
	if m.Outlet().FlowRate() == 0 {
		t.Fatal("outlet should carry flow while active")
	}
	before := m.Counter()
	acc := m.accumulated()

	m.Deactivate()
	m.tick()

	if m.Outlet().FlowRate() != 0 {
		t.Errorf("outlet = %v, want 0", m.Outlet().FlowRate())
	}
	if m.Counter() != before || m.accumulated() != acc {
		t.Error("inactive tick changed the counter")
	}
	if m.Inlet().FlowRate() != 0.003 {
		t.Error("inactive tick should leave the inlet alone")
	}
}

func TestOutletClampApplied(t *testing.T) {
	narrow := pipe.Geometry{Diameter: 0.005, Length: 0.15, Roughness: 0.00005}

	tests := []struct {
		name     string
		fraction float64
	}{
		{"half inlet max", 0.5},
		{"full inlet max", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newStoppedMeter(t, Config{Outlet: narrow})
			m.Activate()

			x := m.Inlet().MaxFlowRate() * tt.fraction
			m.Inlet().SetFlowRate(x)
			out := x * TransmissionFactor
			if out <= m.Outlet().MaxFlowRate()*(1+pipe.FlowTolerance) {
				t.Fatalf("transmitted flow %v should exceed narrow outlet max %v", out, m.Outlet().MaxFlowRate())
			}

			m.tick()

			want := math.Min(out, m.Outlet().MaxFlowRate())
			if got := m.Outlet().FlowRate(); got != want {
				t.Errorf("outlet = %v, want %v", got, want)
			}

			// The counter integrates the transmitted flow.
			wantAcc := out * TickSeconds * LitersPerCubicMeter
			if math.Abs(m.accumulated()-wantAcc) > 1e-12 {
				t.Errorf("accumulator = %v, want %v", m.accumulated(), wantAcc)
			}
			if m.Counter() != int64(math.Floor(wantAcc)) {
				t.Errorf("counter = %d, want %d", m.Counter(), int64(math.Floor(wantAcc)))
			}
		})
	}
}

func TestSetCounterResetsAccumulator(t *testing.T) {
	m := newStoppedMeter(t, Config{})
	m.Activate()
	m.Inlet().SetFlowRate(0.004)
	m.tick()

	m.SetCounter(500)
	if m.Counter() != 500 || m.accumulated() != 500 {
		t.Errorf("after SetCounter: counter=%d accumulator=%v", m.Counter(), m.accumulated())
	}

	m.SetCounter(-3)
	if m.Counter() != -3 {
		t.Errorf("Counter() = %d, want -3", m.Counter())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	m := New(Config{TickInterval: 5 * time.Millisecond})
	defer m.Shutdown()

	m.Stop()
	m.Stop()
	if m.IsRunning() {
		t.Fatal("meter should be stopped")
	}

	m.Start()
	m.Start()
	if !m.IsRunning() {
		t.Fatal("meter should be running after Start")
	}
}

func TestStoppedMeterDoesNotAccumulate(t *testing.T) {
	m := New(Config{TickInterval: 5 * time.Millisecond})
	defer m.Shutdown()
	m.Activate()
	m.Inlet().SetFlowRate(m.Inlet().MaxFlowRate())

	waitFor(t, func() bool { return m.Counter() > 0 })

	m.Stop()
	c := m.Counter()
	time.Sleep(30 * time.Millisecond)
	if m.Counter() != c {
		t.Errorf("counter moved from %d to %d while stopped", c, m.Counter())
	}

	m.Start()
	waitFor(t, func() bool { return m.Counter() > c })
}

func TestShutdownIsPermanent(t *testing.T) {
	m := New(Config{TickInterval: 5 * time.Millisecond})
	m.Activate()
	m.Inlet().SetFlowRate(m.Inlet().MaxFlowRate())

	m.Shutdown()
	m.Shutdown()
	if !m.IsShutdown() || m.IsRunning() {
		t.Fatal("meter should be shut down")
	}

	m.Start()
	if m.IsRunning() {
		t.Error("Start after Shutdown should be a no-op")
	}

	c := m.Counter()
	time.Sleep(30 * time.Millisecond)
	if m.Counter() != c {
		t.Error("shut down meter accumulated")
	}
}

func TestReading(t *testing.T) {
	m := newStoppedMeter(t, Config{})
	m.Inlet().SetFlowRate(0.001)
	m.SetCounter(42)

	r := m.Reading()
	if r.Counter != 42 || r.InletFlow != 0.001 || r.MaxFlow != m.Inlet().MaxFlowRate() {
		t.Errorf("Reading() = %+v", r)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusInactive, "INACTIVE"},
		{StatusActive, "ACTIVE"},
		{Status(7), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) states() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		if e.Lifecycle != nil {
			out = append(out, e.Lifecycle.NewState)
		}
	}
	return out
}

func TestLifecycleEvents(t *testing.T) {
	capture := &captureLogger{}
	m := New(Config{EventLogger: capture, OwnerID: 4, DeviceKey: "k"})
	m.Activate()
	m.Activate()
	m.Deactivate()
	m.Shutdown()

	want := []string{"CREATED", "RUNNING", "ACTIVE", "INACTIVE", "STOPPED", "SHUTDOWN"}
	got := capture.states()
	if len(got) != len(want) {
		t.Fatalf("states = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	for _, e := range capture.events {
		if e.OwnerID != 4 || e.DeviceKey != "k" || e.Source != log.SourceMeter {
			t.Errorf("event identity = (%d, %q, %v)", e.OwnerID, e.DeviceKey, e.Source)
		}
	}
}

func TestSetCounterEmitsCommand(t *testing.T) {
	capture := &captureLogger{}
	m := New(Config{EventLogger: capture, OwnerID: 2, DeviceKey: "k"})
	defer m.Shutdown()

	m.SetCounter(1500)

	capture.mu.Lock()
	defer capture.mu.Unlock()
	for _, e := range capture.events {
		if e.Command == nil {
			continue
		}
		if e.Category != log.CategoryCommand || e.Command.Command != log.CommandSet || e.Command.Counter != 1500 {
			t.Errorf("unexpected command event: %+v / %+v", e, e.Command)
		}
		if e.OwnerID != 2 || e.DeviceKey != "k" {
			t.Errorf("event identity = (%d, %q)", e.OwnerID, e.DeviceKey)
		}
		return
	}
	t.Error("SetCounter emitted no command event")
}

func TestConcurrentAccess(t *testing.T) {
	m := New(Config{TickInterval: time.Millisecond})
	defer m.Shutdown()
	m.Activate()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.Inlet().Increase()
				_ = m.Reading()
				_ = m.Outlet().FlowRate()
				if j%50 == 0 {
					m.SetCounter(int64(j))
				}
			}
		}()
	}
	wg.Wait()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}
