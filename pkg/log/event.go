package log

import "time"

// Event is a simulator event captured by any component.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the simulator process run (UUID).
	RunID string `cbor:"2,keyasint,omitempty"`

	// Source is the component that emitted the event.
	Source Source `cbor:"3,keyasint"`

	// Category classifies the payload.
	Category Category `cbor:"4,keyasint"`

	// OwnerID is the owner the device belongs to (registry-managed devices only).
	OwnerID int `cbor:"5,keyasint,omitempty"`

	// DeviceKey identifies the device within its owner.
	DeviceKey string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Lifecycle *LifecycleEvent `cbor:"10,keyasint,omitempty"`
	Reading   *ReadingEvent   `cbor:"11,keyasint,omitempty"`
	Command   *CommandEvent   `cbor:"12,keyasint,omitempty"`
	Error     *ErrorEventData `cbor:"13,keyasint,omitempty"`
}

// Source identifies the emitting component.
type Source uint8

const (
	// SourceMeter is a metering device.
	SourceMeter Source = 0
	// SourceRegistry is the device registry.
	SourceRegistry Source = 1
	// SourceSimulator is the flow generator, command channel or render loop.
	SourceSimulator Source = 2
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceMeter:
		return "METER"
	case SourceRegistry:
		return "REGISTRY"
	case SourceSimulator:
		return "SIMULATOR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLifecycle indicates a state transition.
	CategoryLifecycle Category = 0
	// CategoryReading indicates a sampled meter readout.
	CategoryReading Category = 1
	// CategoryCommand indicates a flow command.
	CategoryCommand Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLifecycle:
		return "LIFECYCLE"
	case CategoryReading:
		return "READING"
	case CategoryCommand:
		return "COMMAND"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LifecycleEvent captures a state transition.
type LifecycleEvent struct {
	// Entity that changed.
	Entity Entity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// Entity indicates what changed state.
type Entity uint8

const (
	// EntityMeter is a meter's status or running state.
	EntityMeter Entity = 0
	// EntityRecord is a registry record (device added, started, removed).
	EntityRecord Entity = 1
	// EntityRegistry is the registry as a whole (start all, stop all).
	EntityRegistry Entity = 2
	// EntitySimulator is the simulator run.
	EntitySimulator Entity = 3
)

// String returns the entity name.
func (e Entity) String() string {
	switch e {
	case EntityMeter:
		return "METER"
	case EntityRecord:
		return "RECORD"
	case EntityRegistry:
		return "REGISTRY"
	case EntitySimulator:
		return "SIMULATOR"
	default:
		return "UNKNOWN"
	}
}

// ReadingEvent captures a meter readout.
type ReadingEvent struct {
	// Counter is the accumulated volume (L).
	Counter int64 `cbor:"1,keyasint"`

	// InletFlow is the inlet flow rate (m³/s).
	InletFlow float64 `cbor:"2,keyasint"`

	// OutletFlow is the outlet flow rate (m³/s).
	OutletFlow float64 `cbor:"3,keyasint"`

	// MaxFlow is the inlet's maximum flow rate (m³/s).
	MaxFlow float64 `cbor:"4,keyasint,omitempty"`

	// Active reports the meter status at sampling time.
	Active bool `cbor:"5,keyasint,omitempty"`
}

// CommandEvent captures a flow command applied to an inlet.
type CommandEvent struct {
	// Command name (INCREASE, DECREASE, SET, STOP, ...).
	Command string `cbor:"1,keyasint"`

	// FlowBefore is the inlet flow before the command (m³/s).
	FlowBefore float64 `cbor:"2,keyasint,omitempty"`

	// FlowAfter is the inlet flow after the command (m³/s).
	FlowAfter float64 `cbor:"3,keyasint,omitempty"`

	// Counter is the restored reading of a SET command (L).
	Counter int64 `cbor:"4,keyasint,omitempty"`
}

// CommandSet names the counter restore command.
const CommandSet = "SET"

// ErrorEventData captures a recoverable error.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
