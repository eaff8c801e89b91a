package fitting

import (
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"ellipsoidfit/pkg/geometry"
)

// FitAll runs the per-seed optimisation for every seed point on a worker
// pool and returns the surviving ellipsoids sorted by descending volume.
// Failed seeds are discarded, as are survivors whose shortest semi-axis
// falls below the configured minimum. The descending order is part of the
// contract: downstream voxel assignment gives the largest ellipsoid
// priority.
//
// Each seed gets its own RNG derived from rngSeed and the seed's index, so
// results are reproducible regardless of worker count or scheduling.
func (o *Optimizer) FitAll(seeds [][3]int, workers int, rngSeed int64) []*geometry.Ellipsoid {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*geometry.Ellipsoid, len(seeds))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(rngSeed + int64(i)))
				results[i] = o.FitSeed(seeds[i], rng)
			}
		}()
	}

	for i := range seeds {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	fitted := make([]*geometry.Ellipsoid, 0, len(results))
	for _, e := range results {
		if e == nil {
			continue
		}
		if o.params.MinimumSemiAxis > 0 && e.MinRadius() < o.params.MinimumSemiAxis {
			continue
		}
		fitted = append(fitted, e)
	}

	sort.Slice(fitted, func(i, j int) bool {
		return fitted[i].Volume() > fitted[j].Volume()
	})
	return fitted
}
