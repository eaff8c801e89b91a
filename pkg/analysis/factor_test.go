package analysis

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"ellipsoidfit/pkg/geometry"
)

// newEllipsoid builds an ellipsoid with the given radii at the origin.
func newEllipsoid(t *testing.T, a, b, c float64) *geometry.Ellipsoid {
	t.Helper()
	e, err := geometry.NewSphere(r3.Vector{}, 1)
	if err != nil {
		t.Fatalf("Failed to create sphere: %v", err)
	}
	if err := e.Dilate(a-1, b-1, c-1); err != nil {
		t.Fatalf("Failed to dilate: %v", err)
	}
	return e
}

func TestEllipsoidFactor(t *testing.T) {
	cases := []struct {
		name    string
		a, b, c float64
		want    float64
	}{
		{"Sphere", 3, 3, 3, 0},
		{"Oblate", 1, 4, 4, 1.0/4 - 1},
		{"Prolate", 1, 1, 4, 1 - 1.0/4},
		{"UnorderedRadii", 4, 1, 1, 1 - 1.0/4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEllipsoid(t, c.a, c.b, c.c)
			if got := EllipsoidFactor(e); math.Abs(got-c.want) > 1e-12 {
				t.Errorf("Expected EF %f, got %f", c.want, got)
			}
		})
	}
}

func TestEllipsoidFactorRange(t *testing.T) {
	// EF approaches -1 for extreme plates and +1 for extreme rods.
	plate := newEllipsoid(t, 0.01, 100, 100)
	if got := EllipsoidFactor(plate); got > -0.9 {
		t.Errorf("Expected EF near -1 for a plate, got %f", got)
	}
	rod := newEllipsoid(t, 0.01, 0.01, 100)
	if got := EllipsoidFactor(rod); got < 0.9 {
		t.Errorf("Expected EF near +1 for a rod, got %f", got)
	}
}

func TestAxisRatios(t *testing.T) {
	e := newEllipsoid(t, 2, 4, 8)
	sm, ml := AxisRatios(e)
	if math.Abs(sm-0.5) > 1e-12 || math.Abs(ml-0.5) > 1e-12 {
		t.Errorf("Expected ratios (0.5, 0.5), got (%f, %f)", sm, ml)
	}
}

func TestSphericity(t *testing.T) {
	if s := Sphericity(newEllipsoid(t, 3, 3, 3)); math.Abs(s-1) > 1e-12 {
		t.Errorf("Expected sphericity 1 for a sphere, got %f", s)
	}
	if s := Sphericity(newEllipsoid(t, 2, 4, 8)); math.Abs(s-0.25) > 1e-12 {
		t.Errorf("Expected sphericity 0.25, got %f", s)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		s := Summarize(nil)
		if s.Count != 0 || s.MeanVolume != 0 {
			t.Errorf("Expected zero summary, got %+v", s)
		}
	})

	t.Run("Spheres", func(t *testing.T) {
		ellipsoids := []*geometry.Ellipsoid{
			newEllipsoid(t, 1, 1, 1),
			newEllipsoid(t, 2, 2, 2),
			newEllipsoid(t, 3, 3, 3),
		}
		s := Summarize(ellipsoids)

		if s.Count != 3 {
			t.Errorf("Expected count 3, got %d", s.Count)
		}
		wantMean := (ellipsoids[0].Volume() + ellipsoids[1].Volume() + ellipsoids[2].Volume()) / 3
		if math.Abs(s.MeanVolume-wantMean) > 1e-9 {
			t.Errorf("Expected mean volume %f, got %f", wantMean, s.MeanVolume)
		}
		if math.Abs(s.MedianVolume-ellipsoids[1].Volume()) > 1e-9 {
			t.Errorf("Expected median volume %f, got %f", ellipsoids[1].Volume(), s.MedianVolume)
		}
		// All spheres: EF statistics collapse to zero.
		if math.Abs(s.MeanFactor) > 1e-12 || math.Abs(s.StdDevFactor) > 1e-12 {
			t.Errorf("Expected zero EF stats for spheres, got mean %f std %f",
				s.MeanFactor, s.StdDevFactor)
		}
	})
}
