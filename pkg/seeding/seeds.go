// Package seeding supplies seed points for the fitting pipeline when no
// external detector provides them: interior foreground voxels sampled on a
// regular stride, optionally thinned to a minimum physical spacing.
package seeding

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"ellipsoidfit/pkg/voxel"
)

// InteriorSeeds returns every stride-th foreground voxel whose six face
// neighbours are all foreground. Restricting seeds to interior voxels keeps
// the initial sphere of the optimisation from failing on surface voxels.
func InteriorSeeds(vol *voxel.Volume, stride int) [][3]int {
	if stride < 1 {
		stride = 1
	}

	var seeds [][3]int
	for z := 1; z < vol.Depth()-1; z += stride {
		for y := 1; y < vol.Height()-1; y += stride {
			for x := 1; x < vol.Width()-1; x += stride {
				if !vol.Foreground(x, y, z) {
					continue
				}
				if vol.Foreground(x-1, y, z) && vol.Foreground(x+1, y, z) &&
					vol.Foreground(x, y-1, z) && vol.Foreground(x, y+1, z) &&
					vol.Foreground(x, y, z-1) && vol.Foreground(x, y, z+1) {
					seeds = append(seeds, [3]int{x, y, z})
				}
			}
		}
	}
	return seeds
}

// Thin greedily drops seeds closer than minSpacing (in physical units) to a
// previously accepted seed, using a kd-tree over the accepted set. The
// input order decides priority; a non-positive spacing returns the input
// unchanged.
func Thin(vol *voxel.Volume, seeds [][3]int, minSpacing float64) [][3]int {
	if minSpacing <= 0 || len(seeds) == 0 {
		return seeds
	}

	tree := kdtree.New(kdtree.Points{}, false)
	kept := make([][3]int, 0, len(seeds))
	minSq := minSpacing * minSpacing
	for _, s := range seeds {
		p := vol.PhysicalPoint(s[0], s[1], s[2])
		q := kdtree.Point{p.X, p.Y, p.Z}

		// Nearest reports the squared Euclidean distance for kdtree.Point.
		if tree.Len() > 0 {
			if _, d := tree.Nearest(q); d < minSq {
				continue
			}
		}
		tree.Insert(q, false)
		kept = append(kept, s)
	}
	return kept
}
