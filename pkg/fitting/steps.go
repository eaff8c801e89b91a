package fitting

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"ellipsoidfit/pkg/geometry"
)

// shrinkToFit contracts the ellipsoid until none of its contact points
// remain. The unit vectors toward the initial contact points are computed
// once and reused for every inner iteration, so only the directions that
// were actually touching are re-checked. A final, slightly larger
// contraction guarantees clearance from the surface.
func shrinkToFit(e *geometry.Ellipsoid, s *sampler, p Params, scratch []r3.Vector) []r3.Vector {
	contacts := s.contactPoints(e, scratch)
	dirs := contactUnitVectors(e.Centre(), contacts)

	safety := 0
	for len(contacts) > 0 && safety < p.MaxIterations {
		contractFraction(e, p.ShrinkFraction)
		contacts = s.contactPointsAlong(e, dirs, contacts)
		safety++
	}
	contractFraction(e, p.ClearanceFraction)
	return contacts
}

// inflateToFit dilates the ellipsoid along the one-hot axis selection
// (a, b, c) in steps of the sampling increment until the contact-point
// count reaches the contact sensitivity or the safety counter expires.
func inflateToFit(e *geometry.Ellipsoid, s *sampler, a, b, c float64, p Params, scratch []r3.Vector) []r3.Vector {
	contacts := s.contactPoints(e, scratch)
	safety := 0
	for len(contacts) < p.ContactSensitivity && safety < p.MaxIterations {
		// Non-negative deltas cannot degenerate a radius.
		_ = e.Dilate(a*p.VectorIncrement, b*p.VectorIncrement, c*p.VectorIncrement)
		contacts = s.contactPoints(e, contacts)
		safety++
	}
	return contacts
}

// threeWayShuffle picks uniformly at random exactly one of the three axes
// to grow next. The repeated discrete choice is what lets the ellipsoid
// explore elongating along different axes over time.
func threeWayShuffle(rng *rand.Rand) (float64, float64, float64) {
	switch rng.Intn(3) {
	case 0:
		return 1, 0, 0
	case 1:
		return 0, 1, 0
	default:
		return 0, 0, 1
	}
}

// wiggle replaces the orientation with a new frame whose first axis is a
// small random perturbation of x. The rotation is set, not composed.
func wiggle(e *geometry.Ellipsoid, rng *rand.Rand, p Params) {
	b := rng.Float64()*2*p.WiggleAmplitude - p.WiggleAmplitude
	c := rng.Float64()*2*p.WiggleAmplitude - p.WiggleAmplitude
	a := math.Sqrt(1 - b*b - c*c)

	first := r3.Vector{X: a, Y: b, Z: c}
	ref := r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
	e.SetRotation(geometry.FrameFromAxis(first, ref))
}

// bump displaces the centroid by half a sampling increment along the mean
// unit vector toward the contact points, but only if the result stays
// within the max-drift bound of the original seed point.
func bump(e *geometry.Ellipsoid, contacts []r3.Vector, seed r3.Vector, p Params) {
	dir, ok := geometry.MeanUnitVector(e.Centre(), contacts)
	if !ok {
		return
	}
	moved := e.Centre().Add(dir.Mul(p.VectorIncrement / 2))
	if moved.Sub(seed).Norm() < p.MaxDrift {
		e.SetCentre(moved)
	}
}

// turn rotates the ellipsoid by a small fixed angle about the torque axis
// derived from its contact points. Without contact points it is a no-op.
func turn(e *geometry.Ellipsoid, s *sampler, p Params, scratch []r3.Vector) []r3.Vector {
	contacts := s.contactPoints(e, scratch)
	if len(contacts) == 0 {
		return contacts
	}
	torque := calculateTorque(e, contacts)
	if torque.Norm() < 1e-12 {
		return contacts
	}
	e.Rotate(geometry.AxisAngle(torque, p.TurnAngle))
	return contacts
}

// calculateTorque accumulates, over all contact points, the cross product of
// the centroid-relative contact position with the outward surface normal at
// that point, and negates the sum. The normal comes from de-rotating the
// point into the ellipsoid frame, taking the gradient of the quadratic
// form, and rotating it back to world space.
func calculateTorque(e *geometry.Ellipsoid, contacts []r3.Vector) r3.Vector {
	radii := e.Radii()
	a2 := radii[0] * radii[0]
	b2 := radii[1] * radii[1]
	c2 := radii[2] * radii[2]

	rot := e.Rotation()
	r := rot.RawMatrix().Data
	centre := e.Centre()

	var torque r3.Vector
	for _, p := range contacts {
		pc := p.Sub(centre)

		// De-rotate into the ellipsoid frame (multiply by R transposed).
		lx := r[0]*pc.X + r[3]*pc.Y + r[6]*pc.Z
		ly := r[1]*pc.X + r[4]*pc.Y + r[7]*pc.Z
		lz := r[2]*pc.X + r[5]*pc.Y + r[8]*pc.Z

		// Gradient of the ellipsoid equation is the local surface normal.
		local := r3.Vector{X: 2 * lx / a2, Y: 2 * ly / b2, Z: 2 * lz / c2}
		n := local.Norm()
		if n == 0 {
			continue
		}
		local = local.Mul(1 / n)

		// Back to world frame.
		normal := r3.Vector{
			X: r[0]*local.X + r[1]*local.Y + r[2]*local.Z,
			Y: r[3]*local.X + r[4]*local.Y + r[5]*local.Z,
			Z: r[6]*local.X + r[7]*local.Y + r[8]*local.Z,
		}

		torque = torque.Add(pc.Cross(normal))
	}
	return torque.Mul(-1)
}

// contractFraction shrinks each radius by the given fraction of its current
// value. Unlike an absolute contraction this can never degenerate a radius.
func contractFraction(e *geometry.Ellipsoid, fraction float64) {
	radii := e.Radii()
	_ = e.Dilate(-fraction*radii[0], -fraction*radii[1], -fraction*radii[2])
}

// contactUnitVectors returns the unit vectors from the centroid toward each
// contact point.
func contactUnitVectors(centre r3.Vector, contacts []r3.Vector) []r3.Vector {
	dirs := make([]r3.Vector, 0, len(contacts))
	for _, p := range contacts {
		d := p.Sub(centre)
		n := d.Norm()
		if n == 0 {
			continue
		}
		dirs = append(dirs, d.Mul(1/n))
	}
	return dirs
}
