package interactive

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrosim/hydrosim-go/pkg/devicekey"
	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
	"github.com/hydrosim/hydrosim-go/pkg/simulator"
)

type testShell struct {
	*Shell
	reg     *registry.Registry
	out     *bytes.Buffer
	stopped bool
}

func newTestShell(t *testing.T) *testShell {
	t.Helper()

	reg := registry.New(registry.Config{
		Meter:              meter.Config{TickInterval: 2 * time.Millisecond},
		SupervisorInterval: 2 * time.Millisecond,
	})
	t.Cleanup(reg.Close)

	ts := &testShell{reg: reg, out: &bytes.Buffer{}}
	ts.Shell = newShell(ts.out)
	ts.Bind(reg, simulator.NewCommander(reg, func() { ts.stopped = true }, simulator.Config{}))
	return ts
}

// exec runs line and returns its output.
func (ts *testShell) exec(line string) string {
	ts.out.Reset()
	ts.Execute(line)
	return ts.out.String()
}

func TestShellAddAndRemove(t *testing.T) {
	ts := newTestShell(t)

	assert.Contains(t, ts.exec("add 1 kitchen"), "Added 1/kitchen")
	assert.Contains(t, ts.exec("add 1 kitchen"), registry.ErrDuplicateKey.Error())

	out := ts.exec("add 2")
	assert.Contains(t, out, "Added 2/")
	keys := ts.reg.ListDevices(2)
	require.Len(t, keys, 1)
	assert.True(t, devicekey.Valid(keys[0]))

	assert.Contains(t, ts.exec("remove 1/kitchen"), "Removed 1/kitchen")
	assert.Contains(t, ts.exec("remove 1/kitchen"), registry.ErrNotFound.Error())

	assert.Contains(t, ts.exec("remove 2"), "Removed 1 device(s) of owner 2")
	assert.Equal(t, 0, ts.reg.Count())
}

func TestShellAddRequiresOwner(t *testing.T) {
	ts := newTestShell(t)

	assert.Contains(t, ts.exec("add"), "Usage: add")
	assert.Contains(t, ts.exec("add 1/kitchen"), "Invalid owner")
	assert.Equal(t, 0, ts.reg.Count())
}

func TestShellSetAndReading(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, ts.reg.AddDevice(1, "kitchen"))

	assert.Contains(t, ts.exec("set 1/kitchen 1234"), "counter set to 1234 L")
	assert.Contains(t, ts.exec("reading 1/kitchen"), "1234 L (1.234 m³)")

	assert.Contains(t, ts.exec("set 1/kitchen lots"), "Invalid liters")
	assert.Contains(t, ts.exec("reading 1/missing"), registry.ErrNotFound.Error())
	assert.Contains(t, ts.exec("reading 1"), "Usage: reading")
}

func TestShellFlowCommands(t *testing.T) {
	ts := newTestShell(t)

	assert.Contains(t, ts.exec("up"), simulator.ErrNoDevice.Error())

	require.NoError(t, ts.reg.AddDevice(1, "a"))
	require.NoError(t, ts.reg.AddDevice(1, "b"))

	m, err := ts.reg.Meter(1, "a")
	require.NoError(t, err)

	out := ts.exec("+")
	assert.Contains(t, out, "1/a")
	assert.InDelta(t, m.Inlet().Step(), m.Inlet().FlowRate(), 1e-12)

	ts.exec("down")
	assert.Zero(t, m.Inlet().FlowRate())

	ts.exec("next")
	sel, err := ts.commander.Selected()
	require.NoError(t, err)
	assert.Equal(t, registry.DeviceKey("b"), sel.Key)

	assert.Contains(t, ts.exec("select 1/a"), "Selected 1/a")
	assert.Contains(t, ts.exec("select 1/zzz"), registry.ErrNotFound.Error())
}

func TestShellActivateAndStatus(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, ts.reg.AddDevice(3, "garden"))

	assert.Contains(t, ts.exec("activate 3/garden"), "ACTIVE")
	assert.Contains(t, ts.exec("deactivate 3/garden"), "INACTIVE")

	out := ts.exec("status")
	assert.Contains(t, out, "Owner 3: 1 device(s)")
	assert.Contains(t, out, "garden: INACTIVE")
}

func TestShellStartAndStopAll(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, ts.reg.AddDevice(1, "a"))

	assert.Contains(t, ts.exec("start"), "All devices started")
	assert.True(t, ts.reg.IsRunning())

	assert.Contains(t, ts.exec("stop-all"), "All devices stopped")
	assert.False(t, ts.reg.IsRunning())
}

func TestShellQuit(t *testing.T) {
	ts := newTestShell(t)

	assert.False(t, ts.Execute(""))
	assert.False(t, ts.Execute("help"))
	assert.False(t, ts.stopped)

	assert.True(t, ts.Execute("quit"))
	assert.True(t, ts.stopped)
}

func TestShellUnknownCommand(t *testing.T) {
	ts := newTestShell(t)

	assert.Contains(t, ts.exec("frobnicate"), "Unknown command: frobnicate")
}

func newPipeShell(t *testing.T, in io.ReadCloser) *Shell {
	t.Helper()

	s, err := newReadlineShell(&readline.Config{
		Prompt:         "> ",
		Stdin:          in,
		Stdout:         io.Discard,
		FuncIsTerminal: func() bool { return false },
	})
	require.NoError(t, err)
	return s
}

func TestShellRunReturnsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	s := newPipeShell(t, pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, cancel)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestShellRunCancelsOnEOF(t *testing.T) {
	s := newPipeShell(t, io.NopCloser(strings.NewReader("")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, cancel)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return at end of input")
	}
	assert.Error(t, ctx.Err())
}
