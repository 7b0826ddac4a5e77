package pipe

import "math"

// SolveMaxFlow returns the volumetric flow rate (m³/s) through the segment
// for a pressure drop deltaP (Pa), given fluid density rho (kg/m³),
// dynamic viscosity mu (Pa·s) and gravitational acceleration g (m/s²).
//
// It returns 0 when the diameter, the length or deltaP is not positive.
func (s *Segment) SolveMaxFlow(deltaP, rho, mu, g float64) float64 {
	if s.diameter <= 0 || s.length <= 0 || deltaP <= 0 {
		return 0
	}

	// Head loss is fixed by the pressure drop; only f varies with V.
	hf := deltaP / (rho * g)

	v := InitialVelocity
	for iter := 0; iter < MaxIterations; iter++ {
		re := ReynoldsNumber(v, s.diameter, rho, mu)
		f := FrictionFactor(re, s.roughness, s.diameter)

		next := math.Sqrt((2 * g * hf * s.diameter) / (f * s.length))
		if math.Abs(next-v) < Tolerance {
			v = next
			break
		}
		v = next
	}

	return v * CrossSectionArea(s.diameter)
}

// ReynoldsNumber returns Re for mean velocity v (m/s) in a pipe of the given diameter.
func ReynoldsNumber(v, diameter, rho, mu float64) float64 {
	return (rho * v * diameter) / mu
}

// FrictionFactor returns the Darcy friction factor for Reynolds number re.
// Laminar flow uses 64/Re; otherwise the Swamee-Jain approximation.
func FrictionFactor(re, roughness, diameter float64) float64 {
	if re < LaminarReynolds {
		return 64.0 / re
	}
	term := roughness/(3.7*diameter) + 5.74/math.Pow(re, 0.9)
	l := math.Log10(term)
	return 0.25 / (l * l)
}

// CrossSectionArea returns the inner cross-section (m²) of a pipe.
func CrossSectionArea(diameter float64) float64 {
	return math.Pi * diameter * diameter / 4.0
}
