package fitting

import (
	"github.com/golang/geo/r3"

	"ellipsoidfit/pkg/geometry"
	"ellipsoidfit/pkg/voxel"
)

// sampler classifies an ellipsoid's sampled surface against the voxel
// volume. It owns reusable buffers, so each fitting task gets its own
// sampler; the direction table and the volume are shared read-only.
type sampler struct {
	vol  *voxel.Volume
	dirs []r3.Vector

	surfBuf []r3.Vector
}

func newSampler(vol *voxel.Volume, dirs []r3.Vector) *sampler {
	return &sampler{
		vol:     vol,
		dirs:    dirs,
		surfBuf: make([]r3.Vector, 0, len(dirs)),
	}
}

// contactPoints appends to dst every sampled surface point that lands on an
// in-bounds background voxel, and returns the result. Out-of-bounds points
// are silently skipped: leaving the image is not a contact.
func (s *sampler) contactPoints(e *geometry.Ellipsoid, dst []r3.Vector) []r3.Vector {
	return s.contactPointsAlong(e, s.dirs, dst)
}

// contactPointsAlong is contactPoints with an explicit direction set. The
// shrink step passes the fixed unit vectors toward its initial contact
// points instead of the full sampling table.
func (s *sampler) contactPointsAlong(e *geometry.Ellipsoid, dirs []r3.Vector, dst []r3.Vector) []r3.Vector {
	s.surfBuf = e.SurfacePoints(dirs, s.surfBuf)
	dst = dst[:0]
	for _, p := range s.surfBuf {
		x, y, z := s.vol.VoxelOf(p)
		if !s.vol.InBounds(x, y, z) {
			continue
		}
		if !s.vol.Foreground(x, y, z) {
			dst = append(dst, p)
		}
	}
	return dst
}

// isContained reports whether no sampled surface point touches background.
// Out-of-bounds points count as inside: growth is not blocked merely by
// leaving the image.
func (s *sampler) isContained(e *geometry.Ellipsoid) bool {
	s.surfBuf = e.SurfacePoints(s.dirs, s.surfBuf)
	for _, p := range s.surfBuf {
		x, y, z := s.vol.VoxelOf(p)
		if !s.vol.InBounds(x, y, z) {
			continue
		}
		if !s.vol.Foreground(x, y, z) {
			return false
		}
	}
	return true
}

// isInvalid reports whether the ellipsoid has escaped the image: more than
// half of its surface samples out of bounds, or a volume exceeding the
// physical volume of the whole grid. Optimisation for the seed aborts when
// this returns true.
func (s *sampler) isInvalid(e *geometry.Ellipsoid) bool {
	s.surfBuf = e.SurfacePoints(s.dirs, s.surfBuf)
	outOfBounds := 0
	for _, p := range s.surfBuf {
		x, y, z := s.vol.VoxelOf(p)
		if !s.vol.InBounds(x, y, z) {
			outOfBounds++
		}
	}
	if 2*outOfBounds > len(s.surfBuf) {
		return true
	}
	return e.Volume() > s.vol.PhysicalVolume()
}
