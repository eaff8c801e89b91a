// Package fitting grows locally maximal inscribed ellipsoids inside a binary
// voxel volume. Each seed point is optimised independently: an initial sphere
// is dilated, aligned, and then repeatedly wiggled, shrunk, inflated, bumped
// and turned until its volume stops improving. A batch runner fans the
// per-seed optimisation out over a worker pool.
package fitting

import "math"

// Params holds the tunable constants of the optimisation. The defaults match
// the empirically tuned values of the original bone-microarchitecture
// implementation; changing them changes numerical output, so they are
// exposed as named fields rather than re-derived.
type Params struct {
	// VectorIncrement is the physical step size used for growth and
	// shrink operations.
	VectorIncrement float64

	// NVectors is the number of surface-sampling directions.
	NVectors int

	// ContactSensitivity is the minimum number of contact points required
	// before an axis-growth phase is considered pinned.
	ContactSensitivity int

	// MaxIterations bounds the no-improvement counter of the main loop and
	// the safety counters of the inner shrink and inflate loops. The main
	// loop's absolute cap is ten times this value.
	MaxIterations int

	// MaxDrift is the maximum allowed distance between the centroid and
	// the original seed point, in physical units.
	MaxDrift float64

	// MinimumSemiAxis discards fitted ellipsoids whose shortest radius
	// falls below this floor. Zero disables the filter.
	MinimumSemiAxis float64

	// ShrinkFraction is the per-step fractional contraction applied while
	// contact points remain during shrink-to-fit.
	ShrinkFraction float64

	// ClearanceFraction is the single larger fractional contraction applied
	// at the end of shrink-to-fit to guarantee clearance.
	ClearanceFraction float64

	// AlignmentContraction is the absolute contraction applied after the
	// initial axis alignment, pulling the surface back before asymmetric
	// growth.
	AlignmentContraction float64

	// TurnAngle is the rotation angle, in radians, applied about the
	// torque axis by the turn step.
	TurnAngle float64

	// WiggleAmplitude bounds the random components of the perturbed frame
	// built by the wiggle step.
	WiggleAmplitude float64
}

// DefaultParams returns the parameter set of the reference implementation:
// increment 1/2.3, 100 sampling directions, contact sensitivity 1, 100
// iterations and a maximum drift of sqrt(3).
func DefaultParams() Params {
	return Params{
		VectorIncrement:      1.0 / 2.3,
		NVectors:             100,
		ContactSensitivity:   1,
		MaxIterations:        100,
		MaxDrift:             math.Sqrt(3),
		MinimumSemiAxis:      0,
		ShrinkFraction:       0.01,
		ClearanceFraction:    0.05,
		AlignmentContraction: 0.1,
		TurnAngle:            0.1,
		WiggleAmplitude:      0.1,
	}
}

// absoluteMaxIterations is the hard cap on total main-loop iterations; a
// seed that exhausts it is treated as out of control and discarded.
func (p Params) absoluteMaxIterations() int {
	return p.MaxIterations * 10
}
