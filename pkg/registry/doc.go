// Package registry manages metering devices grouped by owner.
//
// Each owner may hold up to MaxDevicesPerOwner devices, addressed by an
// opaque DeviceKey. A single mutex guards every registry operation, reads
// included. StopAll holds it for the whole stop, so structural changes wait
// until every device has quiesced.
//
// Every registered device has a record with its own running flag and a
// supervisor goroutine that lives while the record is started. Teardown
// always runs in the same order: flip the record flag, stop the meter, join
// the supervisor, then drop the record.
//
// Meter fields are atomics and can be read outside the registry lock
// through Meter, at the cost of possibly mixing values from adjacent ticks.
package registry
