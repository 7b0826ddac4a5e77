// Package meter implements a simulated water meter.
//
// A Meter owns an inlet and an outlet pipe segment and a background
// goroutine that ticks every 100 ms. While the meter is active each tick
// moves 90% of the inlet flow to the outlet and integrates the outlet flow
// into a liter counter:
//
//	out = inlet * 0.9
//	accumulator += out * 0.1 s * 1000 L/m³
//	counter = floor(accumulator)
//
// While inactive, the outlet is forced to zero and the counter holds.
//
// A meter has two independent state axes. Status (Activate/Deactivate)
// pauses and resumes accumulation. Running (Start/Stop) controls whether the
// tick goroutine exists. Shutdown stops the goroutine permanently; Start is
// a no-op afterwards.
//
// All accessors are safe for concurrent use. Fields are read independently,
// so a Reading taken while the meter ticks may combine values from two
// adjacent ticks.
package meter
