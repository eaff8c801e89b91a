// Package analysis derives shape statistics from fitted ellipsoids: the
// per-ellipsoid ellipsoid factor and axis ratios, and batch-level
// aggregates.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"ellipsoidfit/pkg/geometry"
)

// EllipsoidFactor returns a/b - b/c for the sorted radii a <= b <= c. It
// ranges from -1 for a perfectly oblate (plate-like) ellipsoid to +1 for a
// perfectly prolate (rod-like) one; a sphere scores 0.
func EllipsoidFactor(e *geometry.Ellipsoid) float64 {
	r := e.SortedRadii()
	return r[0]/r[1] - r[1]/r[2]
}

// AxisRatios returns the short/middle and middle/long radius ratios, both
// in (0, 1].
func AxisRatios(e *geometry.Ellipsoid) (float64, float64) {
	r := e.SortedRadii()
	return r[0] / r[1], r[1] / r[2]
}

// Sphericity returns the short/long radius ratio, a cheap proxy in (0, 1]
// that reaches 1 only for a sphere.
func Sphericity(e *geometry.Ellipsoid) float64 {
	r := e.SortedRadii()
	return r[0] / r[2]
}

// Summary aggregates a batch of fitted ellipsoids.
type Summary struct {
	Count int

	MeanVolume   float64
	MedianVolume float64
	StdDevVolume float64

	MeanFactor   float64
	MedianFactor float64
	StdDevFactor float64
}

// Summarize computes batch statistics over the given ellipsoids. A nil or
// empty input yields a zero Summary.
func Summarize(ellipsoids []*geometry.Ellipsoid) Summary {
	if len(ellipsoids) == 0 {
		return Summary{}
	}

	volumes := make([]float64, len(ellipsoids))
	factors := make([]float64, len(ellipsoids))
	for i, e := range ellipsoids {
		volumes[i] = e.Volume()
		factors[i] = EllipsoidFactor(e)
	}

	// Quantile needs sorted input.
	sortedVolumes := append([]float64(nil), volumes...)
	sortedFactors := append([]float64(nil), factors...)
	sort.Float64s(sortedVolumes)
	sort.Float64s(sortedFactors)

	return Summary{
		Count:        len(ellipsoids),
		MeanVolume:   stat.Mean(volumes, nil),
		MedianVolume: stat.Quantile(0.5, stat.Empirical, sortedVolumes, nil),
		StdDevVolume: stat.StdDev(volumes, nil),
		MeanFactor:   stat.Mean(factors, nil),
		MedianFactor: stat.Quantile(0.5, stat.Empirical, sortedFactors, nil),
		StdDevFactor: stat.StdDev(factors, nil),
	}
}
