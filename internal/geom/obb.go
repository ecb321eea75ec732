package geom

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OBB is an oriented bounding box: a center, half-extents along three local
// axes, and the axes themselves. Grounded on physics.OBB.
type OBB struct {
	Center   Vec3
	HalfSize Vec3
	Axes     [3]Vec3
}

// NewOBB builds an OBB from center, full size and an euler rotation in
// degrees, matching physics.NewOBB's X-then-Y-then-Z convention.
func NewOBB(center, size, rotationDeg Vec3) OBB {
	rx := float64(rotationDeg.X) * math.Pi / 180
	ry := float64(rotationDeg.Y) * math.Pi / 180
	rz := float64(rotationDeg.Z) * math.Pi / 180

	rotX := rl.MatrixRotateX(float32(rx))
	rotY := rl.MatrixRotateY(float32(ry))
	rotZ := rl.MatrixRotateZ(float32(rz))
	m := rl.MatrixMultiply(rl.MatrixMultiply(rotX, rotY), rotZ)

	axes := [3]Vec3{
		rl.Vector3Normalize(Vec3{X: m.M0, Y: m.M1, Z: m.M2}),
		rl.Vector3Normalize(Vec3{X: m.M4, Y: m.M5, Z: m.M6}),
		rl.Vector3Normalize(Vec3{X: m.M8, Y: m.M9, Z: m.M10}),
	}

	return OBB{Center: center, HalfSize: rl.Vector3Scale(size, 0.5), Axes: axes}
}

// NewOBBFromAxes builds an OBB directly from a center, half-size, and an
// already-orthonormal frame — used by the OBB-tree builder after PCA
// produces the node's eigenbasis (spec §4.2).
func NewOBBFromAxes(center, halfSize Vec3, axes [3]Vec3) OBB {
	return OBB{Center: center, HalfSize: halfSize, Axes: axes}
}

// AxisAlignedOBB returns an OBB with no rotation, equivalent to a Box.
func AxisAlignedOBB(center, size Vec3) OBB {
	return OBB{
		Center:   center,
		HalfSize: rl.Vector3Scale(size, 0.5),
		Axes:     [3]Vec3{{X: 1}, {Y: 1}, {Z: 1}},
	}
}

// ToBox returns the OBB's local-space box (center at origin).
func (o OBB) ToBox() Box {
	return Box{Min: rl.Vector3Negate(o.HalfSize), Max: o.HalfSize}
}

// WorldBox returns the axis-aligned box in world space that bounds the OBB.
func (o OBB) WorldBox() Box {
	ext := Vec3{}
	for i := 0; i < 3; i++ {
		axis := o.Axes[i]
		h := AxisValue(o.HalfSize, i)
		ext.X += absf(axis.X) * h
		ext.Y += absf(axis.Y) * h
		ext.Z += absf(axis.Z) * h
	}
	return Box{Min: rl.Vector3Subtract(o.Center, ext), Max: rl.Vector3Add(o.Center, ext)}
}

// Intersects performs the 15-axis Separating Axis Theorem test against
// another OBB, grounded on physics.OBB.IntersectsOBB.
func (a OBB) Intersects(b OBB) bool {
	t := rl.Vector3Subtract(b.Center, a.Center)

	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, a.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, b.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := rl.Vector3CrossProduct(a.Axes[i], b.Axes[j])
			if rl.Vector3Length(axis) > 1e-4 {
				axis = rl.Vector3Normalize(axis)
				if !overlapOnAxis(a, b, axis, t) {
					return false
				}
			}
		}
	}
	return true
}

func overlapOnAxis(a, b OBB, axis, t Vec3) bool {
	aProj := projectHalfExtent(a, axis)
	bProj := projectHalfExtent(b, axis)
	distance := absf(rl.Vector3DotProduct(t, axis))
	return distance <= aProj+bProj
}

func projectHalfExtent(o OBB, axis Vec3) float32 {
	return AxisValue(o.HalfSize, 0)*absf(rl.Vector3DotProduct(o.Axes[0], axis)) +
		AxisValue(o.HalfSize, 1)*absf(rl.Vector3DotProduct(o.Axes[1], axis)) +
		AxisValue(o.HalfSize, 2)*absf(rl.Vector3DotProduct(o.Axes[2], axis))
}

// Resolve returns the minimum translation vector separating a from b,
// grounded on physics.OBB.ResolveOBB.
func (a OBB) Resolve(b OBB) Vec3 {
	if !a.Intersects(b) {
		return Vec3{}
	}

	t := rl.Vector3Subtract(b.Center, a.Center)
	minPenetration := float32(math.MaxFloat32)
	var mtv Vec3

	test := func(axis Vec3) {
		if rl.Vector3Length(axis) < 1e-4 {
			return
		}
		axis = rl.Vector3Normalize(axis)
		aProj := projectHalfExtent(a, axis)
		bProj := projectHalfExtent(b, axis)
		dist := rl.Vector3DotProduct(t, axis)
		penetration := aProj + bProj - absf(dist)
		if penetration < minPenetration {
			minPenetration = penetration
			if dist < 0 {
				mtv = rl.Vector3Scale(axis, penetration)
			} else {
				mtv = rl.Vector3Scale(axis, -penetration)
			}
		}
	}

	for i := 0; i < 3; i++ {
		test(a.Axes[i])
	}
	for i := 0; i < 3; i++ {
		test(b.Axes[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test(rl.Vector3CrossProduct(a.Axes[i], b.Axes[j]))
		}
	}
	return mtv
}

// IntersectsSphere tests an OBB against a sphere.
func (o OBB) IntersectsSphere(s Sphere) bool {
	local := rl.Vector3Subtract(s.Center, o.Center)
	lx := rl.Vector3DotProduct(local, o.Axes[0])
	ly := rl.Vector3DotProduct(local, o.Axes[1])
	lz := rl.Vector3DotProduct(local, o.Axes[2])

	cx := clampf(lx, -o.HalfSize.X, o.HalfSize.X)
	cy := clampf(ly, -o.HalfSize.Y, o.HalfSize.Y)
	cz := clampf(lz, -o.HalfSize.Z, o.HalfSize.Z)

	dx, dy, dz := lx-cx, ly-cy, lz-cz
	return dx*dx+dy*dy+dz*dz <= s.Radius*s.Radius
}

// ClosestPoint returns the point of the solid OBB closest to p; a point
// inside the box is returned unchanged.
func (o OBB) ClosestPoint(p Vec3) Vec3 {
	local := rl.Vector3Subtract(p, o.Center)
	lx := rl.Vector3DotProduct(local, o.Axes[0])
	ly := rl.Vector3DotProduct(local, o.Axes[1])
	lz := rl.Vector3DotProduct(local, o.Axes[2])

	cx := clampf(lx, -o.HalfSize.X, o.HalfSize.X)
	cy := clampf(ly, -o.HalfSize.Y, o.HalfSize.Y)
	cz := clampf(lz, -o.HalfSize.Z, o.HalfSize.Z)

	result := o.Center
	result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[0], cx))
	result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[1], cy))
	result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[2], cz))
	return result
}

// Volume returns the OBB's volume, used by the AABB-tree-vs-OBB-tree
// selection rule in spec §4.2 ("rationale").
func (o OBB) Volume() float32 {
	return 8 * o.HalfSize.X * o.HalfSize.Y * o.HalfSize.Z
}
