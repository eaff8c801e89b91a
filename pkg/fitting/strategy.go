package fitting

import (
	"fmt"
	"math/rand"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"ellipsoidfit/pkg/geometry"
	"ellipsoidfit/pkg/voxel"
)

// Optimizer fits locally maximal inscribed ellipsoids inside one volume.
// The volume and the direction table are shared read-only across seeds; all
// mutable state lives in the per-seed call, so a single Optimizer may be
// used from any number of goroutines.
type Optimizer struct {
	vol     *voxel.Volume
	dirs    []r3.Vector
	params  Params
	verbose bool
}

// NewOptimizer builds an optimizer for the given volume. The sampling
// direction table is generated once from params.NVectors.
func NewOptimizer(vol *voxel.Volume, params Params) *Optimizer {
	return &Optimizer{
		vol:    vol,
		dirs:   geometry.SphereVectors(params.NVectors),
		params: params,
	}
}

// SetVerbose enables informational prints for per-seed failures. The
// failure reason is never surfaced as an error to the caller.
func (o *Optimizer) SetVerbose(v bool) {
	o.verbose = v
}

// FitSeed grows an ellipsoid at the given voxel-space seed point and
// returns the locally largest one found, or nil if optimisation for this
// seed failed. Every failure path returns nil; a partially formed ellipsoid
// is never returned. The supplied RNG drives the wiggle and axis-selection
// steps, so a fixed source makes the result reproducible.
func (o *Optimizer) FitSeed(seedVoxel [3]int, rng *rand.Rand) *geometry.Ellipsoid {
	p := o.params
	s := newSampler(o.vol, o.dirs)
	seed := o.vol.PhysicalPoint(seedVoxel[0], seedVoxel[1], seedVoxel[2])

	e, err := geometry.NewSphere(seed, p.VectorIncrement)
	if err != nil {
		return nil
	}

	// Phase 1: grow a sphere until it first touches background. A sphere
	// of one increment that already touches background means the seed sits
	// in or against void, and the seed is abandoned immediately. The
	// invalidity guard stops runaway growth when the sphere escapes the
	// image without ever touching background.
	if !s.isContained(e) {
		o.logf("seed %v: cannot fit initial sphere\n", seedVoxel)
		return nil
	}
	for s.isContained(e) {
		// Positive deltas cannot degenerate a radius.
		_ = e.Dilate(p.VectorIncrement, p.VectorIncrement, p.VectorIncrement)
		if s.isInvalid(e) {
			o.logf("seed %v: invalid during initial dilation\n", seedVoxel)
			return nil
		}
	}

	// Phase 2: point the short axis at the mean contact direction.
	contacts := s.contactPoints(e, nil)
	if short, ok := geometry.MeanUnitVector(e.Centre(), contacts); ok {
		e.SetRotation(shortAxisFrame(short))
	}

	// Phase 3: shrink clear of the surface, then pull back a little more
	// before axis-specific growth.
	contacts = shrinkToFit(e, s, p, contacts)
	e.Contract(p.AlignmentContraction)

	// Phase 4: grow the non-short axes until the contact count reaches the
	// sensitivity threshold.
	contacts = s.contactPoints(e, contacts)
	safety := 0
	for len(contacts) < p.ContactSensitivity && safety < p.MaxIterations {
		_ = e.Dilate(0, p.VectorIncrement, p.VectorIncrement)
		contacts = s.contactPoints(e, contacts)
		if s.isInvalid(e) {
			o.logf("seed %v: invalid after initial oblation\n", seedVoxel)
			return nil
		}
		safety++
	}

	// Phase 5: the main loop. Each iteration runs three shrink/inflate
	// rounds, preceded by a wiggle, a bump (or fallback wiggle) and a
	// turn respectively, snapshots the best volume seen, and resets the
	// working ellipsoid to that snapshot.
	maximal := e.Copy()
	volumeHistory := []float64{e.Volume()}
	totalIterations := 0
	noImprovement := 0
	absoluteMax := p.absoluteMaxIterations()

	for totalIterations < absoluteMax && noImprovement < p.MaxIterations {
		wiggle(e, rng, p)
		contacts = shrinkToFit(e, s, p, contacts)
		da, db, dc := threeWayShuffle(rng)
		contacts = inflateToFit(e, s, da, db, dc, p, contacts)
		if s.isInvalid(e) {
			o.logf("seed %v: invalid during wiggle cycle\n", seedVoxel)
			return nil
		}
		if e.Volume() > maximal.Volume() {
			maximal = e.Copy()
		}

		contacts = s.contactPoints(e, contacts)
		if len(contacts) == 0 {
			wiggle(e, rng, p)
		} else {
			bump(e, contacts, seed, p)
		}

		contacts = shrinkToFit(e, s, p, contacts)
		da, db, dc = threeWayShuffle(rng)
		contacts = inflateToFit(e, s, da, db, dc, p, contacts)
		if s.isInvalid(e) {
			o.logf("seed %v: invalid during bump cycle\n", seedVoxel)
			return nil
		}
		if e.Volume() > maximal.Volume() {
			maximal = e.Copy()
		}

		contacts = turn(e, s, p, contacts)
		contacts = shrinkToFit(e, s, p, contacts)
		da, db, dc = threeWayShuffle(rng)
		contacts = inflateToFit(e, s, da, db, dc, p, contacts)
		if s.isInvalid(e) {
			o.logf("seed %v: invalid during turn cycle\n", seedVoxel)
			return nil
		}
		if e.Volume() > maximal.Volume() {
			maximal = e.Copy()
		}

		e = maximal.Copy()
		volumeHistory = append(volumeHistory, e.Volume())

		n := len(volumeHistory)
		if volumeHistory[n-1] > volumeHistory[n-2] {
			noImprovement = 0
		} else {
			noImprovement++
		}
		totalIterations++
	}

	// Exhausting the absolute cap means the volume kept moving without
	// settling; such a fit is out of control and is discarded outright.
	if totalIterations == absoluteMax {
		o.logf("seed %v: optimisation out of control after %d iterations\n",
			seedVoxel, totalIterations)
		return nil
	}

	return maximal
}

// shortAxisFrame builds the alignment frame whose first axis is the given
// short-axis direction. The middle axis comes from a cross with world x;
// when the short axis is itself (near) collinear with world x that cross
// degenerates, and world y is used as the reference instead.
func shortAxisFrame(short r3.Vector) *mat.Dense {
	ref := r3.Vector{X: 1}
	if short.Cross(ref).Norm() < 1e-9 {
		ref = r3.Vector{Y: 1}
	}
	return geometry.FrameFromAxis(short, ref)
}

func (o *Optimizer) logf(format string, args ...interface{}) {
	if o.verbose {
		fmt.Printf(format, args...)
	}
}
