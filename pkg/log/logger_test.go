package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp: time.Now(),
		Source:    SourceMeter,
		Category:  CategoryLifecycle,
	}
	logger.Log(event)

	event.Lifecycle = &LifecycleEvent{Entity: EntityMeter, NewState: "ACTIVE"}
	logger.Log(event)

	event.Lifecycle = nil
	event.Reading = &ReadingEvent{Counter: 12}
	logger.Log(event)

	event.Reading = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}

	m := &mockLogger{}
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop(l) should return l")
	}
}

// mockLogger records events for testing.
type mockLogger struct {
	events []Event
}

func (m *mockLogger) Log(event Event) {
	m.events = append(m.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	mock1 := &mockLogger{}
	mock2 := &mockLogger{}

	multi := NewMultiLogger(mock1, nil, mock2)
	multi.Log(Event{Timestamp: time.Now(), DeviceKey: "dev-1"})

	for i, mock := range []*mockLogger{mock1, mock2} {
		if len(mock.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(mock.events))
			continue
		}
		if mock.events[0].DeviceKey != "dev-1" {
			t.Errorf("logger %d: DeviceKey = %q, want %q", i, mock.events[0].DeviceKey, "dev-1")
		}
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	NewMultiLogger().Log(Event{Timestamp: time.Now()})
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{SourceMeter.String(), "METER"},
		{SourceRegistry.String(), "REGISTRY"},
		{SourceSimulator.String(), "SIMULATOR"},
		{Source(99).String(), "UNKNOWN"},
		{CategoryLifecycle.String(), "LIFECYCLE"},
		{CategoryReading.String(), "READING"},
		{CategoryCommand.String(), "COMMAND"},
		{CategoryError.String(), "ERROR"},
		{Category(99).String(), "UNKNOWN"},
		{EntityMeter.String(), "METER"},
		{EntityRecord.String(), "RECORD"},
		{EntityRegistry.String(), "REGISTRY"},
		{EntitySimulator.String(), "SIMULATOR"},
		{Entity(99).String(), "UNKNOWN"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestRunLoggerStampsEvents(t *testing.T) {
	mock := &mockLogger{}
	runID := NewRunID()
	logger := NewRunLogger(mock, runID)

	logger.Log(Event{DeviceKey: "a"})
	logger.Log(Event{RunID: "other", Timestamp: time.Unix(1, 0)})

	if len(mock.events) != 2 {
		t.Fatalf("got %d events, want 2", len(mock.events))
	}
	if mock.events[0].RunID != runID || mock.events[0].Timestamp.IsZero() {
		t.Errorf("first event not stamped: %+v", mock.events[0])
	}
	if mock.events[1].RunID != "other" || !mock.events[1].Timestamp.Equal(time.Unix(1, 0)) {
		t.Errorf("second event overwritten: %+v", mock.events[1])
	}
	if logger.RunID() != runID {
		t.Errorf("RunID() = %q, want %q", logger.RunID(), runID)
	}
	if len(NewRunID()) != 36 {
		t.Error("NewRunID should return a canonical UUID string")
	}
}

func TestRunLoggerNilNext(t *testing.T) {
	NewRunLogger(nil, "r").Log(Event{})
}
