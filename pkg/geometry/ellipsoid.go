// Package geometry provides the ellipsoid primitive used by the fitting
// pipeline, together with the deterministic sphere-sampling and rotation
// helpers the optimisation steps are built on.
package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Ellipsoid is a 3D ellipsoid with an arbitrary orientation. The three
// semi-axis radii are unordered: there is no guarantee that a <= b <= c.
// The columns of the rotation matrix are the axis directions belonging to
// the three radii in order.
//
// An Ellipsoid is mutated in place by the fitting loop; it is not safe for
// concurrent use. Each fitting task owns its own instance.
type Ellipsoid struct {
	centre r3.Vector
	radii  [3]float64
	rot    *mat.Dense

	// shape caches the quadratic-form matrix R*diag(1/r^2)*R^T used by
	// Contains. It is rebuilt lazily after any mutation.
	shape      [3][3]float64
	shapeStale bool
}

// NewSphere returns an ellipsoid with all three radii equal to radius and an
// identity orientation, centred at centre. The fitting driver starts every
// seed point from such a sphere.
func NewSphere(centre r3.Vector, radius float64) (*Ellipsoid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sphere radius must be positive, got %g", radius)
	}
	return &Ellipsoid{
		centre:     centre,
		radii:      [3]float64{radius, radius, radius},
		rot:        identity(),
		shapeStale: true,
	}, nil
}

// Centre returns the current centroid.
func (e *Ellipsoid) Centre() r3.Vector {
	return e.centre
}

// SetCentre moves the centroid without touching radii or orientation.
func (e *Ellipsoid) SetCentre(c r3.Vector) {
	e.centre = c
}

// Radii returns the three semi-axis radii in axis order (unordered by size).
func (e *Ellipsoid) Radii() [3]float64 {
	return e.radii
}

// SortedRadii returns the radii sorted ascending, so that result[0] is the
// shortest semi-axis and result[2] the longest.
func (e *Ellipsoid) SortedRadii() [3]float64 {
	r := e.radii
	if r[0] > r[1] {
		r[0], r[1] = r[1], r[0]
	}
	if r[1] > r[2] {
		r[1], r[2] = r[2], r[1]
	}
	if r[0] > r[1] {
		r[0], r[1] = r[1], r[0]
	}
	return r
}

// MinRadius returns the shortest semi-axis.
func (e *Ellipsoid) MinRadius() float64 {
	return math.Min(e.radii[0], math.Min(e.radii[1], e.radii[2]))
}

// MaxRadius returns the longest semi-axis.
func (e *Ellipsoid) MaxRadius() float64 {
	return math.Max(e.radii[0], math.Max(e.radii[1], e.radii[2]))
}

// Volume returns 4/3*pi*a*b*c, always recomputed from the current radii.
func (e *Ellipsoid) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * e.radii[0] * e.radii[1] * e.radii[2]
}

// Rotation returns a copy of the 3x3 rotation matrix whose columns are the
// axis directions of the three radii.
func (e *Ellipsoid) Rotation() *mat.Dense {
	return mat.DenseCopyOf(e.rot)
}

// Dilate adds the given deltas to the three radii. It returns an error if
// any resulting radius would be non-positive, which indicates a programming
// error in the caller rather than bad user input.
func (e *Ellipsoid) Dilate(da, db, dc float64) error {
	a := e.radii[0] + da
	b := e.radii[1] + db
	c := e.radii[2] + dc
	if a <= 0 || b <= 0 || c <= 0 {
		return fmt.Errorf("dilation (%g, %g, %g) would degenerate radii (%g, %g, %g)",
			da, db, dc, e.radii[0], e.radii[1], e.radii[2])
	}
	e.radii = [3]float64{a, b, c}
	e.shapeStale = true
	return nil
}

// Contract shrinks all three radii by amount. If the contraction would drive
// any radius to zero or below, the call is a no-op: late-stage contraction
// steps run unconditionally inside loops and must not fail.
func (e *Ellipsoid) Contract(amount float64) {
	if amount >= e.MinRadius() {
		return
	}
	e.radii[0] -= amount
	e.radii[1] -= amount
	e.radii[2] -= amount
	e.shapeStale = true
}

// Rotate composes the given rotation onto the current orientation by
// right-multiplication.
func (e *Ellipsoid) Rotate(m *mat.Dense) {
	var out mat.Dense
	out.Mul(e.rot, m)
	e.rot.Copy(&out)
	e.shapeStale = true
}

// SetRotation replaces the orientation outright. Used for absolute
// realignment, such as pointing the short axis at the mean contact
// direction.
func (e *Ellipsoid) SetRotation(m *mat.Dense) {
	e.rot.Copy(m)
	e.shapeStale = true
}

// Contains reports whether p lies on or inside the ellipsoid surface.
// Points outside the bounding sphere are rejected and points inside the
// inscribed sphere accepted before the full quadratic form is evaluated.
func (e *Ellipsoid) Contains(p r3.Vector) bool {
	d := p.Sub(e.centre)
	n2 := d.Norm2()
	maxR := e.MaxRadius()
	if n2 > maxR*maxR {
		return false
	}
	minR := e.MinRadius()
	if n2 < minR*minR {
		return true
	}
	h := e.shapeMatrix()
	x, y, z := d.X, d.Y, d.Z
	q := x*(h[0][0]*x+h[0][1]*y+h[0][2]*z) +
		y*(h[1][0]*x+h[1][1]*y+h[1][2]*z) +
		z*(h[2][0]*x+h[2][1]*y+h[2][2]*z)
	return q <= 1
}

// SurfacePoints maps each unit direction in dirs through the ellipsoid's
// scale-rotate-translate transform and returns the resulting surface points
// in physical space. This is the hottest routine in the pipeline, so the
// caller may pass a reusable buffer; a direction (1,0,0) maps to
// centre + a*column0, and so on for the other axes.
func (e *Ellipsoid) SurfacePoints(dirs []r3.Vector, buf []r3.Vector) []r3.Vector {
	if cap(buf) < len(dirs) {
		buf = make([]r3.Vector, len(dirs))
	}
	buf = buf[:len(dirs)]

	a, b, c := e.radii[0], e.radii[1], e.radii[2]
	r := e.rot.RawMatrix().Data
	r00, r01, r02 := r[0], r[1], r[2]
	r10, r11, r12 := r[3], r[4], r[5]
	r20, r21, r22 := r[6], r[7], r[8]

	for i, u := range dirs {
		lx, ly, lz := a*u.X, b*u.Y, c*u.Z
		buf[i] = r3.Vector{
			X: e.centre.X + r00*lx + r01*ly + r02*lz,
			Y: e.centre.Y + r10*lx + r11*ly + r12*lz,
			Z: e.centre.Z + r20*lx + r21*ly + r22*lz,
		}
	}
	return buf
}

// XMinMax returns the closed-form extrema of the ellipsoid along the world
// x axis.
func (e *Ellipsoid) XMinMax() (float64, float64) {
	return e.axisMinMax(0)
}

// YMinMax returns the extrema along the world y axis.
func (e *Ellipsoid) YMinMax() (float64, float64) {
	return e.axisMinMax(1)
}

// ZMinMax returns the extrema along the world z axis.
func (e *Ellipsoid) ZMinMax() (float64, float64) {
	return e.axisMinMax(2)
}

// AABB returns the axis-aligned bounding box as (min, max) corners.
func (e *Ellipsoid) AABB() (r3.Vector, r3.Vector) {
	x0, x1 := e.axisMinMax(0)
	y0, y1 := e.axisMinMax(1)
	z0, z1 := e.axisMinMax(2)
	return r3.Vector{X: x0, Y: y0, Z: z0}, r3.Vector{X: x1, Y: y1, Z: z1}
}

func (e *Ellipsoid) axisMinMax(row int) (float64, float64) {
	var sum float64
	for j := 0; j < 3; j++ {
		t := e.rot.At(row, j) * e.radii[j]
		sum += t * t
	}
	half := math.Sqrt(sum)
	var c float64
	switch row {
	case 0:
		c = e.centre.X
	case 1:
		c = e.centre.Y
	default:
		c = e.centre.Z
	}
	return c - half, c + half
}

// Copy returns a deep copy, used to snapshot the best-so-far state during
// optimisation.
func (e *Ellipsoid) Copy() *Ellipsoid {
	return &Ellipsoid{
		centre:     e.centre,
		radii:      e.radii,
		rot:        mat.DenseCopyOf(e.rot),
		shapeStale: true,
	}
}

// shapeMatrix returns the cached quadratic form R*diag(1/r^2)*R^T,
// rebuilding it if a mutation has occurred since the last call.
func (e *Ellipsoid) shapeMatrix() [3][3]float64 {
	if !e.shapeStale {
		return e.shape
	}
	inv := [3]float64{
		1 / (e.radii[0] * e.radii[0]),
		1 / (e.radii[1] * e.radii[1]),
		1 / (e.radii[2] * e.radii[2]),
	}
	r := e.rot.RawMatrix().Data
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += r[i*3+k] * inv[k] * r[j*3+k]
			}
			e.shape[i][j] = s
		}
	}
	e.shapeStale = false
	return e.shape
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
