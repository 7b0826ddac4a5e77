// Package pipe models a single pipe segment of a residential water network.
//
// A Segment has a fixed geometry (diameter, length and absolute wall
// roughness, all in meters) and a mutable instantaneous flow rate in m³/s.
// The flow rate is bounded by a maximum that is derived once, at
// construction, from the Darcy-Weisbach equation for a reference pressure
// drop of 100 kPa across the segment.
//
// # Friction Model
//
// The Darcy friction factor is computed from the Reynolds number:
//
//   - Laminar (Re < 2000): f = 64 / Re
//   - Turbulent: the Swamee-Jain approximation of Colebrook-White,
//     f = 0.25 / log10(ε/(3.7·D) + 5.74/Re^0.9)²
//
// Because the friction factor depends on the velocity being solved for,
// SolveMaxFlow iterates a fixed-point update of the mean velocity, seeded
// at 1 m/s, until successive values differ by less than 1e-9 m/s or 100
// iterations have run.
//
// # Flow Commands
//
// SetFlowRate silently ignores negative requests and requests above the
// maximum (with a 0.1% tolerance for float comparisons). Callers detect an
// ignored request only by reading FlowRate back. Increase and Decrease move
// the flow by one Step (1/50 of the maximum) and pin it at the boundaries.
//
// # Concurrency
//
// Geometry is immutable. The flow rate is stored atomically, so a segment
// may be read from any goroutine while its owning meter updates it.
package pipe
