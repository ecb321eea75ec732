package bvh

import "collidecore/internal/geom"

// quantBits is the number of bits used to encode each of a node's six
// extents relative to its parent, per spec §3 "AABB node".
const quantBits = 7
const quantLevels = 1 << quantBits // 128

// quantizeExtents encodes childBox's six faces as fractions of parentBox,
// each in [0,127]. childBox must lie within parentBox (the caller clamps).
func quantizeExtents(parent, child geom.Box) [6]uint8 {
	size := parent.Size()
	enc := func(value, origin, extent float32) uint8 {
		if extent <= 0 {
			return 0
		}
		frac := (value - origin) / extent
		q := int32(frac * float32(quantLevels))
		if q < 0 {
			q = 0
		}
		if q > quantLevels-1 {
			q = quantLevels - 1
		}
		return uint8(q)
	}
	return [6]uint8{
		enc(child.Min.X, parent.Min.X, size.X),
		enc(child.Max.X, parent.Min.X, size.X),
		enc(child.Min.Y, parent.Min.Y, size.Y),
		enc(child.Max.Y, parent.Min.Y, size.Y),
		enc(child.Min.Z, parent.Min.Z, size.Z),
		enc(child.Max.Z, parent.Min.Z, size.Z),
	}
}

// dequantizeExtents is the inverse of quantizeExtents. Per spec §3: "child
// min = min * parent_size * (2/128), child max = (max+1) * parent_size *
// (2/128)" relative to the parent's own min corner (restated here with the
// min-corner origin rather than a center-relative one, which is an
// equivalent formulation easier to keep branch-free in Go).
func dequantizeExtents(parent geom.Box, q [6]uint8) geom.Box {
	size := parent.Size()
	step := func(extent float32) float32 { return extent / float32(quantLevels) }
	return geom.Box{
		Min: geom.Vec3{
			X: parent.Min.X + float32(q[0])*step(size.X),
			Y: parent.Min.Y + float32(q[2])*step(size.Y),
			Z: parent.Min.Z + float32(q[4])*step(size.Z),
		},
		Max: geom.Vec3{
			X: parent.Min.X + (float32(q[1])+1)*step(size.X),
			Y: parent.Min.Y + (float32(q[3])+1)*step(size.Y),
			Z: parent.Min.Z + (float32(q[5])+1)*step(size.Z),
		},
	}
}
