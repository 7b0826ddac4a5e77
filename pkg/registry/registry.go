package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
	"github.com/hydrosim/hydrosim-go/pkg/meter"
)

// MaxDevicesPerOwner is the maximum number of devices one owner can hold.
const MaxDevicesPerOwner = 5

// NoReading is returned by Reading for unknown devices.
const NoReading int64 = -1

// SupervisorInterval is the default wake-up period of record supervisors.
const SupervisorInterval = 100 * time.Millisecond

// OwnerID identifies the owner of a group of devices.
type OwnerID int

// DeviceKey identifies a device within its owner.
type DeviceKey string

// Config configures a Registry.
type Config struct {
	// Meter is the template for new meters. OwnerID and DeviceKey are set
	// per device; nil loggers inherit the registry's.
	Meter meter.Config

	// SupervisorInterval overrides the supervisor wake-up period.
	SupervisorInterval time.Duration

	// Logger receives operational debug output. Nil disables it.
	Logger *slog.Logger

	// EventLogger receives lifecycle events. Nil disables capture.
	EventLogger log.Logger
}

// Device identifies a registered meter.
type Device struct {
	Owner OwnerID
	Key   DeviceKey
	Meter *meter.Meter
}

// DeviceStatus is a point-in-time view of one device.
type DeviceStatus struct {
	Key        DeviceKey
	Status     meter.Status
	Running    bool
	Counter    int64
	InletFlow  float64
	OutletFlow float64
	MaxFlow    float64
}

// OwnerStatus groups the device views of one owner.
type OwnerStatus struct {
	Owner   OwnerID
	Devices []DeviceStatus
}

// Registry holds metering devices grouped by owner.
type Registry struct {
	mu sync.Mutex

	config Config
	logger *slog.Logger
	events log.Logger

	// running is the global start flag set by StartAll.
	running bool

	// owners maps each owner to its records in insertion order.
	owners map[OwnerID][]*record
}

// New creates an empty, stopped registry.
func New(cfg Config) *Registry {
	if cfg.SupervisorInterval <= 0 {
		cfg.SupervisorInterval = SupervisorInterval
	}
	return &Registry{
		config: cfg,
		logger: cfg.Logger,
		events: log.OrNoop(cfg.EventLogger),
		owners: make(map[OwnerID][]*record),
	}
}

// AddDevice registers a new meter for owner under key. If the registry is
// running, the meter is activated and its supervisor started.
// Returns ErrCapacityExceeded if the owner already holds MaxDevicesPerOwner
// devices, or ErrDuplicateKey if key is taken for that owner.
func (r *Registry) AddDevice(owner OwnerID, key DeviceKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.owners[owner]
	if len(records) >= MaxDevicesPerOwner {
		return fmt.Errorf("add %d/%s: %w", owner, key, ErrCapacityExceeded)
	}
	if findRecord(records, key) >= 0 {
		return fmt.Errorf("add %d/%s: %w", owner, key, ErrDuplicateKey)
	}

	cfg := r.config.Meter
	cfg.OwnerID = int(owner)
	cfg.DeviceKey = string(key)
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	if cfg.EventLogger == nil {
		cfg.EventLogger = r.config.EventLogger
	}

	rec := &record{key: key, meter: meter.New(cfg)}
	if r.running {
		rec.meter.Activate()
		rec.start(r.config.SupervisorInterval)
	}
	r.owners[owner] = append(records, rec)

	r.debugLog("device added", "owner", owner, "device", key, "running", r.running)
	r.emitLifecycle(owner, key, log.EntityRecord, "", "ADDED", "")
	return nil
}

// RemoveDevice tears down and drops one device. An owner left without
// devices is forgotten.
// Returns ErrNotFound, without changing anything, if it is not registered.
func (r *Registry) RemoveDevice(owner OwnerID, key DeviceKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.owners[owner]
	i := findRecord(records, key)
	if i < 0 {
		return fmt.Errorf("remove %d/%s: %w", owner, key, ErrNotFound)
	}

	records[i].stop(true)
	if records = slices.Delete(records, i, i+1); len(records) == 0 {
		delete(r.owners, owner)
	} else {
		r.owners[owner] = records
	}

	r.debugLog("device removed", "owner", owner, "device", key)
	r.emitLifecycle(owner, key, log.EntityRecord, "", "REMOVED", "")
	return nil
}

// RemoveAllForOwner tears down every device of owner and forgets the owner.
// Unknown owners are ignored.
func (r *Registry) RemoveAllForOwner(owner OwnerID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeOwnerLocked(owner)
}

func (r *Registry) removeOwnerLocked(owner OwnerID) {
	records, ok := r.owners[owner]
	if !ok {
		return
	}
	for _, rec := range records {
		rec.stop(true)
		r.emitLifecycle(owner, rec.key, log.EntityRecord, "", "REMOVED", "owner removed")
	}
	delete(r.owners, owner)

	r.debugLog("owner removed", "owner", owner, "devices", len(records))
}

// StartAll sets the global running flag and starts every record that is not
// running: its meter is activated and restarted and its supervisor launched.
// Meters that were shut down stay stopped.
func (r *Registry) StartAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = true
	started := 0
	for _, owner := range r.sortedOwnersLocked() {
		for _, rec := range r.owners[owner] {
			if rec.running.Load() {
				continue
			}
			rec.meter.Activate()
			rec.meter.Start()
			rec.start(r.config.SupervisorInterval)
			started++
		}
	}

	r.debugLog("registry started", "started", started)
	r.emitLifecycle(0, "", log.EntityRegistry, "STOPPED", "RUNNING", "")
}

// StopAll clears the global running flag, stops every meter and joins every
// supervisor. Meters can be resumed by StartAll.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopAllLocked()
}

func (r *Registry) stopAllLocked() {
	r.running = false
	for _, records := range r.owners {
		for _, rec := range records {
			rec.stop(false)
		}
	}

	r.debugLog("registry stopped", "devices", r.countLocked())
	r.emitLifecycle(0, "", log.EntityRegistry, "RUNNING", "STOPPED", "")
}

// IsRunning reports whether the global running flag is set.
func (r *Registry) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close stops every device and removes every owner. Meters are shut down
// permanently.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopAllLocked()
	for _, owner := range r.sortedOwnersLocked() {
		r.removeOwnerLocked(owner)
	}
}

// Reading returns the counter of one device, or NoReading and ErrNotFound.
func (r *Registry) Reading(owner OwnerID, key DeviceKey) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.lookupLocked(owner, key)
	if rec == nil {
		return NoReading, fmt.Errorf("reading %d/%s: %w", owner, key, ErrNotFound)
	}
	return rec.meter.Counter(), nil
}

// Meter returns the meter of one device.
func (r *Registry) Meter(owner OwnerID, key DeviceKey) (*meter.Meter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.lookupLocked(owner, key)
	if rec == nil {
		return nil, fmt.Errorf("meter %d/%s: %w", owner, key, ErrNotFound)
	}
	return rec.meter, nil
}

// ListDevices returns the keys of owner's devices in insertion order.
func (r *Registry) ListDevices(owner OwnerID) []DeviceKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.owners[owner]
	keys := make([]DeviceKey, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.key)
	}
	return keys
}

// Owners returns the known owners in ascending order.
func (r *Registry) Owners() []OwnerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedOwnersLocked()
}

// Devices returns every device, owners ascending, each owner's devices in
// insertion order.
func (r *Registry) Devices() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]Device, 0, r.countLocked())
	for _, owner := range r.sortedOwnersLocked() {
		for _, rec := range r.owners[owner] {
			devices = append(devices, Device{Owner: owner, Key: rec.key, Meter: rec.meter})
		}
	}
	return devices
}

// Count returns the total number of devices.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countLocked()
}

// SnapshotStatus returns a view of every device for reporting. Owners are
// sorted ascending; devices keep insertion order.
func (r *Registry) SnapshotStatus() []OwnerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	owners := r.sortedOwnersLocked()
	snapshot := make([]OwnerStatus, 0, len(owners))
	for _, owner := range owners {
		entry := OwnerStatus{Owner: owner}
		for _, rec := range r.owners[owner] {
			m := rec.meter
			entry.Devices = append(entry.Devices, DeviceStatus{
				Key:        rec.key,
				Status:     m.Status(),
				Running:    rec.running.Load(),
				Counter:    m.Counter(),
				InletFlow:  m.Inlet().FlowRate(),
				OutletFlow: m.Outlet().FlowRate(),
				MaxFlow:    m.Inlet().MaxFlowRate(),
			})
		}
		snapshot = append(snapshot, entry)
	}
	return snapshot
}

func (r *Registry) lookupLocked(owner OwnerID, key DeviceKey) *record {
	records := r.owners[owner]
	if i := findRecord(records, key); i >= 0 {
		return records[i]
	}
	return nil
}

func (r *Registry) countLocked() int {
	n := 0
	for _, records := range r.owners {
		n += len(records)
	}
	return n
}

func (r *Registry) sortedOwnersLocked() []OwnerID {
	owners := make([]OwnerID, 0, len(r.owners))
	for owner := range r.owners {
		owners = append(owners, owner)
	}
	slices.Sort(owners)
	return owners
}

func findRecord(records []*record, key DeviceKey) int {
	return slices.IndexFunc(records, func(rec *record) bool { return rec.key == key })
}

func (r *Registry) emitLifecycle(owner OwnerID, key DeviceKey, entity log.Entity, oldState, newState, reason string) {
	r.events.Log(log.Event{
		Timestamp: time.Now(),
		Source:    log.SourceRegistry,
		Category:  log.CategoryLifecycle,
		OwnerID:   int(owner),
		DeviceKey: string(key),
		Lifecycle: &log.LifecycleEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// debugLog logs a debug message if a logger is configured.
func (r *Registry) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
