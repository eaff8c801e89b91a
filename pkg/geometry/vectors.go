package geometry

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// SphereVectors returns n near-uniformly distributed unit vectors using the
// generalized-spiral construction of Saff and Kuijlaars. The construction is
// deterministic: the same n always produces the same angular coverage, which
// keeps contact detection reproducible across runs.
func SphereVectors(n int) []r3.Vector {
	vectors := make([]r3.Vector, n)
	if n == 1 {
		vectors[0] = r3.Vector{X: 0, Y: 0, Z: 1}
		return vectors
	}

	var phi float64
	for k := 0; k < n; k++ {
		h := -1 + 2*float64(k)/float64(n-1)
		theta := math.Acos(h)
		if k == 0 || k == n-1 {
			phi = 0
		} else {
			phi += 3.6 / math.Sqrt(float64(n)*(1-h*h))
		}
		sinTheta := math.Sin(theta)
		vectors[k] = r3.Vector{
			X: sinTheta * math.Cos(phi),
			Y: sinTheta * math.Sin(phi),
			Z: math.Cos(theta),
		}
	}
	return vectors
}

// AxisAngle builds the rotation matrix for a rotation of theta radians about
// the given axis, using the standard axis-angle (Rodrigues) formula. The
// axis need not be normalised.
func AxisAngle(axis r3.Vector, theta float64) *mat.Dense {
	u := axis.Normalize()
	c := math.Cos(theta)
	s := math.Sin(theta)
	t := 1 - c
	x, y, z := u.X, u.Y, u.Z
	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
}

// FrameFromAxis constructs a right-handed orthonormal rotation matrix whose
// first column is first (normalised). The second column is the normalised
// cross product of first with ref, so ref must not be parallel to first; the
// third column completes the frame.
func FrameFromAxis(first, ref r3.Vector) *mat.Dense {
	c0 := first.Normalize()
	c1 := c0.Cross(ref).Normalize()
	c2 := c0.Cross(c1)
	return mat.NewDense(3, 3, []float64{
		c0.X, c1.X, c2.X,
		c0.Y, c1.Y, c2.Y,
		c0.Z, c1.Z, c2.Z,
	})
}

// MeanUnitVector returns the normalised mean of the unit vectors from origin
// toward each of the given points. It returns false if there are no points
// or the directions cancel out.
func MeanUnitVector(origin r3.Vector, points []r3.Vector) (r3.Vector, bool) {
	if len(points) == 0 {
		return r3.Vector{}, false
	}
	var sum r3.Vector
	for _, p := range points {
		d := p.Sub(origin)
		n := d.Norm()
		if n == 0 {
			continue
		}
		sum = sum.Add(d.Mul(1 / n))
	}
	if sum.Norm() < 1e-12 {
		return r3.Vector{}, false
	}
	return sum.Normalize(), true
}
