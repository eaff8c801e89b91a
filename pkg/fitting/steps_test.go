package fitting

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"ellipsoidfit/pkg/geometry"
)

func TestThreeWayShuffleIsOneHot(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[[3]float64]int{}

	for i := 0; i < 300; i++ {
		a, b, c := threeWayShuffle(rng)
		if a+b+c != 1 || (a != 0 && a != 1) || (b != 0 && b != 1) || (c != 0 && c != 1) {
			t.Fatalf("Expected a one-hot selector, got (%v, %v, %v)", a, b, c)
		}
		seen[[3]float64{a, b, c}]++
	}
	if len(seen) != 3 {
		t.Errorf("Expected all three axes to be chosen over 300 draws, got %d", len(seen))
	}
}

func TestWiggleSetsNearbyOrthonormalFrame(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := DefaultParams()

	e, err := geometry.NewSphere(r3.Vector{}, 1)
	if err != nil {
		t.Fatalf("Failed to create sphere: %v", err)
	}

	for i := 0; i < 50; i++ {
		wiggle(e, rng, p)
		rot := e.Rotation()

		var prod mat.Dense
		prod.Mul(rot.T(), rot)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				want := 0.0
				if r == c {
					want = 1.0
				}
				if math.Abs(prod.At(r, c)-want) > 1e-9 {
					t.Fatalf("Draw %d: rotation not orthonormal at (%d, %d): %f",
						i, r, c, prod.At(r, c))
				}
			}
		}

		// The first axis stays within the wiggle amplitude of world x.
		if rot.At(0, 0) < math.Sqrt(1-2*p.WiggleAmplitude*p.WiggleAmplitude)-1e-9 {
			t.Fatalf("Draw %d: first axis strayed too far from x: %f", i, rot.At(0, 0))
		}
	}
}

func TestShrinkToFitClearsContacts(t *testing.T) {
	// Foreground cube [4,12)^3 inside a 16^3 grid.
	vol := newTestVolume(t, 16, 16, 16)
	for z := 0; z < 16; z++ {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				if x < 4 || x >= 12 || y < 4 || y >= 12 || z < 4 || z >= 12 {
					vol.SetForeground(x, y, z, false)
				}
			}
		}
	}
	s := newSampler(vol, geometry.SphereVectors(100))
	p := DefaultParams()

	// A sphere of radius 6 pokes out of the cube on all sides.
	e := newTestSphere(t, r3.Vector{X: 8, Y: 8, Z: 8}, 6)
	contacts := shrinkToFit(e, s, p, nil)

	if len(s.contactPoints(e, contacts)) != 0 {
		t.Error("Expected no contacts after shrink-to-fit")
	}
	if r := e.MaxRadius(); r >= 4.5 {
		t.Errorf("Expected the sphere to shrink inside the cube, radius %f", r)
	}
	if r := e.MinRadius(); r <= 0 {
		t.Errorf("Radii must stay positive, got %f", r)
	}
}

func TestInflateToFitGrowsUntilContact(t *testing.T) {
	vol := newTestVolume(t, 16, 16, 16)
	for z := 0; z < 16; z++ {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				if x < 4 || x >= 12 || y < 4 || y >= 12 || z < 4 || z >= 12 {
					vol.SetForeground(x, y, z, false)
				}
			}
		}
	}
	s := newSampler(vol, geometry.SphereVectors(100))
	p := DefaultParams()

	e := newTestSphere(t, r3.Vector{X: 8, Y: 8, Z: 8}, 1)
	before := e.Radii()
	contacts := inflateToFit(e, s, 1, 0, 0, p, nil)

	if len(contacts) < p.ContactSensitivity {
		t.Errorf("Expected at least %d contacts after inflation, got %d",
			p.ContactSensitivity, len(contacts))
	}
	after := e.Radii()
	if after[0] <= before[0] {
		t.Error("Expected the selected axis to grow")
	}
	if after[1] != before[1] || after[2] != before[2] {
		t.Error("Unselected axes must not grow")
	}
}

func TestBumpRespectsMaxDrift(t *testing.T) {
	seed := r3.Vector{X: 10, Y: 10, Z: 10}
	contacts := []r3.Vector{{X: 14, Y: 10, Z: 10}}

	t.Run("Moves", func(t *testing.T) {
		p := DefaultParams()
		e := newTestSphere(t, seed, 2)
		bump(e, contacts, seed, p)

		want := seed.Add(r3.Vector{X: p.VectorIncrement / 2})
		if e.Centre().Sub(want).Norm() > 1e-12 {
			t.Errorf("Expected centre %v, got %v", want, e.Centre())
		}
	})

	t.Run("DriftBound", func(t *testing.T) {
		p := DefaultParams()
		p.MaxDrift = 0.1
		e := newTestSphere(t, seed, 2)
		bump(e, contacts, seed, p)

		if e.Centre() != seed {
			t.Errorf("Displacement exceeding the drift bound must be dropped, centre %v", e.Centre())
		}
	})

	t.Run("NoContacts", func(t *testing.T) {
		p := DefaultParams()
		e := newTestSphere(t, seed, 2)
		bump(e, nil, seed, p)
		if e.Centre() != seed {
			t.Errorf("Bump without contacts must not move, centre %v", e.Centre())
		}
	})
}

func TestTurnWithoutContactsIsNoOp(t *testing.T) {
	vol := newTestVolume(t, 16, 16, 16)
	s := newSampler(vol, geometry.SphereVectors(100))
	p := DefaultParams()

	e := newTestSphere(t, r3.Vector{X: 8, Y: 8, Z: 8}, 2)
	before := e.Rotation()
	turn(e, s, p, nil)
	after := e.Rotation()

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if before.At(i, j) != after.At(i, j) {
				t.Fatalf("Rotation changed at (%d, %d) without contacts", i, j)
			}
		}
	}
}

func TestTurnRotatesTowardEquilibrium(t *testing.T) {
	// Background above a plane tilted in x: contacts on one side only.
	vol := newTestVolume(t, 16, 16, 16)
	for z := 12; z < 16; z++ {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				vol.SetForeground(x, y, z, false)
			}
		}
	}
	s := newSampler(vol, geometry.SphereVectors(100))
	p := DefaultParams()

	// A prolate ellipsoid tilted against the flat background ceiling sees
	// an unbalanced torque from its contact normals.
	e := newTestSphere(t, r3.Vector{X: 8, Y: 8, Z: 10}, 3)
	if err := e.Dilate(2, 0, 0); err != nil {
		t.Fatalf("Failed to dilate: %v", err)
	}
	e.Rotate(geometry.AxisAngle(r3.Vector{Y: 1}, 0.3))
	before := e.Rotation()
	turn(e, s, p, nil)
	after := e.Rotation()

	changed := false
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(before.At(i, j)-after.At(i, j)) > 1e-12 {
				changed = true
			}
		}
	}
	if !changed {
		t.Error("Expected the rotation to change with asymmetric contacts")
	}

	// Composition must preserve orthonormality.
	var prod mat.Dense
	prod.Mul(after.T(), after)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod.At(i, j)-want) > 1e-9 {
				t.Errorf("Rotation not orthonormal after turn at (%d, %d): %f", i, j, prod.At(i, j))
			}
		}
	}
}

func TestContractFractionNeverDegenerates(t *testing.T) {
	e := newTestSphere(t, r3.Vector{}, 0.001)
	for i := 0; i < 1000; i++ {
		contractFraction(e, 0.05)
	}
	if e.MinRadius() <= 0 {
		t.Errorf("Fractional contraction degenerated a radius: %f", e.MinRadius())
	}
}
