package pipe

import (
	"math"
	"sync/atomic"
)

// Physical constants used to derive a segment's maximum flow rate.
const (
	// ReferencePressureDrop is the pressure drop (Pa) the maximum flow rate is derived for.
	ReferencePressureDrop = 100000.0

	// WaterDensity is the density of water at ~20 °C (kg/m³).
	WaterDensity = 998.0

	// WaterViscosity is the dynamic viscosity of water at ~20 °C (Pa·s).
	WaterViscosity = 1.002e-3

	// Gravity is standard gravity (m/s²).
	Gravity = 9.80665
)

// Solver limits.
const (
	// MaxIterations bounds the fixed-point velocity iteration.
	MaxIterations = 100

	// Tolerance is the velocity convergence threshold (m/s).
	Tolerance = 1e-9

	// InitialVelocity seeds the iteration (m/s).
	InitialVelocity = 1.0

	// LaminarReynolds is the Reynolds number below which flow is treated as laminar.
	LaminarReynolds = 2000.0
)

// Flow command limits.
const (
	// FlowTolerance is the relative slack accepted above the maximum flow rate.
	FlowTolerance = 0.001

	// StepDivisor splits the maximum flow rate into command steps.
	StepDivisor = 50
)

// Geometry describes the fixed dimensions of a segment, in meters.
type Geometry struct {
	Diameter  float64 `yaml:"diameter"`
	Length    float64 `yaml:"length"`
	Roughness float64 `yaml:"roughness"`
}

// Segment is a pipe segment with fixed geometry and a mutable flow rate.
type Segment struct {
	diameter  float64
	length    float64
	roughness float64

	maxFlowRate float64

	// flowRate holds math.Float64bits of the current flow rate (m³/s).
	flowRate atomic.Uint64
}

// New creates a segment and derives its maximum flow rate for the
// reference pressure drop. A non-positive diameter or length yields a
// maximum of zero; no error is reported.
func New(diameter, length, roughness float64) *Segment {
	s := &Segment{
		diameter:  diameter,
		length:    length,
		roughness: roughness,
	}
	s.maxFlowRate = s.SolveMaxFlow(ReferencePressureDrop, WaterDensity, WaterViscosity, Gravity)
	return s
}

// NewFromGeometry creates a segment from a Geometry value.
func NewFromGeometry(g Geometry) *Segment {
	return New(g.Diameter, g.Length, g.Roughness)
}

// Diameter returns the inner diameter (m).
func (s *Segment) Diameter() float64 { return s.diameter }

// Length returns the segment length (m).
func (s *Segment) Length() float64 { return s.length }

// Roughness returns the absolute wall roughness (m).
func (s *Segment) Roughness() float64 { return s.roughness }

// Geometry returns the segment dimensions.
func (s *Segment) Geometry() Geometry {
	return Geometry{Diameter: s.diameter, Length: s.length, Roughness: s.roughness}
}

// MaxFlowRate returns the maximum flow rate (m³/s) at the reference pressure drop.
func (s *Segment) MaxFlowRate() float64 { return s.maxFlowRate }

// FlowRate returns the current flow rate (m³/s).
func (s *Segment) FlowRate() float64 {
	return math.Float64frombits(s.flowRate.Load())
}

// SetFlowRate sets the current flow rate (m³/s).
//
// Negative values and values above MaxFlowRate()*(1+FlowTolerance) are
// ignored. Values within the tolerance band are clamped to the maximum.
func (s *Segment) SetFlowRate(v float64) {
	if v < 0 || math.IsNaN(v) {
		return
	}
	if v > s.maxFlowRate*(1+FlowTolerance) {
		return
	}
	s.storeFlow(math.Min(v, s.maxFlowRate))
}

// Step returns the flow increment applied by Increase and Decrease.
func (s *Segment) Step() float64 {
	return s.maxFlowRate / StepDivisor
}

// Increase raises the flow rate by one Step, pinning it at the maximum.
// It returns the resulting flow rate.
func (s *Segment) Increase() float64 {
	next := s.FlowRate() + s.Step()
	if next > s.maxFlowRate {
		next = s.maxFlowRate
	}
	s.SetFlowRate(next)
	return s.FlowRate()
}

// Decrease lowers the flow rate by one Step, pinning it at zero.
// It returns the resulting flow rate.
func (s *Segment) Decrease() float64 {
	next := s.FlowRate() - s.Step()
	if next < 0 {
		next = 0
	}
	s.SetFlowRate(next)
	return s.FlowRate()
}

// Utilization returns the current flow as a fraction of the maximum.
// A segment with a zero maximum reports zero.
func (s *Segment) Utilization() float64 {
	if s.maxFlowRate <= 0 {
		return 0
	}
	return s.FlowRate() / s.maxFlowRate
}

func (s *Segment) storeFlow(v float64) {
	s.flowRate.Store(math.Float64bits(v))
}
