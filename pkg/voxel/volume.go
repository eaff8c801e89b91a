// Package voxel provides the read-only binary volume the fitting core runs
// against: a 3D occupancy grid with a known per-axis physical scale.
package voxel

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Scale is the physical size of one voxel along each axis, in arbitrary but
// consistent units (typically mm).
type Scale struct {
	X, Y, Z float64
}

// Volume is a binary 3D voxel grid stored as a flat array in x-fastest
// (row-major) order. Foreground voxels are structure, background voxels are
// void. The fitting pipeline only ever reads a Volume, so one instance can
// be shared by any number of concurrent fitting tasks.
type Volume struct {
	data   []uint8
	width  int
	height int
	depth  int
	scale  Scale
}

// New creates an all-background volume with the given extents and physical
// voxel scale.
func New(width, height, depth int, scale Scale) (*Volume, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("volume extents must be positive, got %dx%dx%d", width, height, depth)
	}
	if scale.X <= 0 || scale.Y <= 0 || scale.Z <= 0 {
		return nil, fmt.Errorf("voxel scale must be positive, got %+v", scale)
	}
	return &Volume{
		data:   make([]uint8, width*height*depth),
		width:  width,
		height: height,
		depth:  depth,
		scale:  scale,
	}, nil
}

// Width returns the x extent in voxels.
func (v *Volume) Width() int { return v.width }

// Height returns the y extent in voxels.
func (v *Volume) Height() int { return v.height }

// Depth returns the z extent in voxels.
func (v *Volume) Depth() int { return v.depth }

// Scale returns the physical voxel size.
func (v *Volume) Scale() Scale { return v.scale }

// InBounds reports whether the voxel index lies inside the grid.
func (v *Volume) InBounds(x, y, z int) bool {
	return x >= 0 && x < v.width && y >= 0 && y < v.height && z >= 0 && z < v.depth
}

// Foreground reports whether the voxel at (x, y, z) is structure. The caller
// must ensure the index is in bounds.
func (v *Volume) Foreground(x, y, z int) bool {
	return v.data[(z*v.height+y)*v.width+x] != 0
}

// SetForeground marks a voxel as structure or void. Volumes are built once
// and then treated as read-only by the fitting core.
func (v *Volume) SetForeground(x, y, z int, fg bool) {
	idx := (z*v.height + y) * v.width + x
	if fg {
		v.data[idx] = 1
	} else {
		v.data[idx] = 0
	}
}

// PhysicalVolume returns the total physical volume of the grid, used as the
// sanity bound for fitted ellipsoids.
func (v *Volume) PhysicalVolume() float64 {
	return float64(v.width) * float64(v.height) * float64(v.depth) *
		v.scale.X * v.scale.Y * v.scale.Z
}

// VoxelOf converts a physical-space point to voxel indices by floor division
// with the per-axis scale. The result may be out of bounds; callers check
// with InBounds.
func (v *Volume) VoxelOf(p r3.Vector) (int, int, int) {
	return int(math.Floor(p.X / v.scale.X)),
		int(math.Floor(p.Y / v.scale.Y)),
		int(math.Floor(p.Z / v.scale.Z))
}

// PhysicalPoint converts voxel indices to the physical-space coordinates of
// the voxel origin.
func (v *Volume) PhysicalPoint(x, y, z int) r3.Vector {
	return r3.Vector{
		X: float64(x) * v.scale.X,
		Y: float64(y) * v.scale.Y,
		Z: float64(z) * v.scale.Z,
	}
}

// ForegroundCount returns the number of structure voxels.
func (v *Volume) ForegroundCount() int {
	count := 0
	for _, b := range v.data {
		if b != 0 {
			count++
		}
	}
	return count
}

// FillBox marks the half-open voxel box [x0,x1)x[y0,y1)x[z0,z1) as
// foreground, clamped to the grid. Convenience for building test phantoms.
func (v *Volume) FillBox(x0, y0, z0, x1, y1, z1 int) {
	x0, y0, z0 = clamp(x0, 0, v.width), clamp(y0, 0, v.height), clamp(z0, 0, v.depth)
	x1, y1, z1 = clamp(x1, 0, v.width), clamp(y1, 0, v.height), clamp(z1, 0, v.depth)
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				v.data[(z*v.height+y)*v.width+x] = 1
			}
		}
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
