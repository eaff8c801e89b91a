package fitting

import (
	"testing"

	"ellipsoidfit/pkg/voxel"
)

// threeBoxVolume builds a grid with three separate foreground cubes of
// sides 14, 10 and 6, and returns the volume together with seeds at the
// cube centres.
func threeBoxVolume(t testing.TB) (*voxel.Volume, [][3]int) {
	t.Helper()
	v, err := voxel.New(60, 20, 20, voxel.Scale{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	v.FillBox(2, 3, 3, 16, 17, 17)  // side 14, centre (9, 10, 10)
	v.FillBox(20, 5, 5, 30, 15, 15) // side 10, centre (25, 10, 10)
	v.FillBox(36, 7, 7, 42, 13, 13) // side 6, centre (39, 10, 10)

	seeds := [][3]int{
		{39, 10, 10}, // smallest first: order must come from sorting
		{9, 10, 10},
		{25, 10, 10},
	}
	return v, seeds
}

func TestFitAllSortsByDescendingVolume(t *testing.T) {
	vol, seeds := threeBoxVolume(t)
	// One extra seed in background must fail and be discarded.
	seeds = append(seeds, [3]int{50, 2, 2})

	p := DefaultParams()
	p.MaxIterations = 30
	o := NewOptimizer(vol, p)

	fitted := o.FitAll(seeds, 4, 1)
	if len(fitted) != 3 {
		t.Fatalf("Expected 3 surviving ellipsoids, got %d", len(fitted))
	}
	for i := 1; i < len(fitted); i++ {
		if fitted[i].Volume() > fitted[i-1].Volume() {
			t.Errorf("Results not in descending volume order: %f before %f",
				fitted[i-1].Volume(), fitted[i].Volume())
		}
	}

	// The largest ellipsoid must belong to the largest cube.
	if c := fitted[0].Centre(); c.X > 18 {
		t.Errorf("Largest ellipsoid should sit in the side-14 cube, centre %v", c)
	}
	if c := fitted[len(fitted)-1].Centre(); c.X < 34 {
		t.Errorf("Smallest ellipsoid should sit in the side-6 cube, centre %v", c)
	}
}

func TestFitAllMinimumSemiAxisFilter(t *testing.T) {
	vol, seeds := threeBoxVolume(t)

	p := DefaultParams()
	p.MaxIterations = 30
	p.MinimumSemiAxis = 4
	o := NewOptimizer(vol, p)

	fitted := o.FitAll(seeds, 2, 1)
	for _, e := range fitted {
		if e.MinRadius() < p.MinimumSemiAxis {
			t.Errorf("Semi-axis %f below the configured floor %f survived",
				e.MinRadius(), p.MinimumSemiAxis)
		}
	}
	if len(fitted) >= len(seeds) {
		t.Errorf("Expected the smallest cube's fit to be filtered, got %d survivors", len(fitted))
	}
}

func TestFitAllReproducibleAcrossWorkerCounts(t *testing.T) {
	vol, seeds := threeBoxVolume(t)

	p := DefaultParams()
	p.MaxIterations = 20
	o := NewOptimizer(vol, p)

	serial := o.FitAll(seeds, 1, 7)
	parallel := o.FitAll(seeds, 8, 7)

	if len(serial) != len(parallel) {
		t.Fatalf("Survivor counts differ: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].Volume() != parallel[i].Volume() {
			t.Errorf("Result %d differs between worker counts: %f vs %f",
				i, serial[i].Volume(), parallel[i].Volume())
		}
	}
}

func TestFitAllEmptySeeds(t *testing.T) {
	vol, _ := threeBoxVolume(t)
	o := NewOptimizer(vol, DefaultParams())
	if fitted := o.FitAll(nil, 4, 1); len(fitted) != 0 {
		t.Errorf("Expected no results for no seeds, got %d", len(fitted))
	}
}
