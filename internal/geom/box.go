package geom

import rl "github.com/gen2brain/raylib-go/raylib"

// Box is an axis-aligned bounding box, grounded on physics.AABB.
type Box struct {
	Min, Max Vec3
}

// EmptyBox returns a box that contains nothing; Grow against it starts the
// inverted-extent accumulation pattern used by computeBounds.
func EmptyBox() Box {
	return Box{
		Min: Vec3{X: maxFloat, Y: maxFloat, Z: maxFloat},
		Max: Vec3{X: -maxFloat, Y: -maxFloat, Z: -maxFloat},
	}
}

const maxFloat = 3.4028235e38

// NewBoxFromCenter builds a box from center and full size, as
// physics.NewAABBFromCenter does.
func NewBoxFromCenter(center, size Vec3) Box {
	half := rl.Vector3Scale(size, 0.5)
	return Box{Min: rl.Vector3Subtract(center, half), Max: rl.Vector3Add(center, half)}
}

// Center returns the box midpoint.
func (b Box) Center() Vec3 {
	return rl.Vector3Scale(rl.Vector3Add(b.Min, b.Max), 0.5)
}

// HalfSize returns half the box's extents along each axis.
func (b Box) HalfSize() Vec3 {
	return rl.Vector3Scale(rl.Vector3Subtract(b.Max, b.Min), 0.5)
}

// Size returns the box's full extents.
func (b Box) Size() Vec3 {
	return rl.Vector3Subtract(b.Max, b.Min)
}

// Volume returns the box's volume; zero or negative for a degenerate box.
func (b Box) Volume() float32 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Grow returns the smallest box containing b and the point p.
func (b Box) Grow(p Vec3) Box {
	return Box{Min: vmin(b.Min, p), Max: vmax(b.Max, p)}
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{Min: vmin(b.Min, o.Min), Max: vmax(b.Max, o.Max)}
}

// Intersects reports whether two boxes overlap (touching counts as overlap),
// grounded on physics.AABB.Intersects.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether p lies within the box (inclusive).
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// LongestAxis returns 0/1/2 for X/Y/Z, the axis along which the box is
// largest.
func (b Box) LongestAxis() int {
	s := b.Size()
	axis := 0
	if s.Y > AxisValue(s, axis) {
		axis = 1
	}
	if s.Z > AxisValue(s, axis) {
		axis = 2
	}
	return axis
}

// AxisValue projects a vector onto one of the three cardinal axes.
func AxisValue(v Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Resolve returns the minimum-translation vector that would push b out of o,
// grounded on physics.AABB.Resolve.
func (b Box) Resolve(o Box) Vec3 {
	if !b.Intersects(o) {
		return Vec3{}
	}
	dx1 := o.Max.X - b.Min.X
	dx2 := b.Max.X - o.Min.X
	dy1 := o.Max.Y - b.Min.Y
	dy2 := b.Max.Y - o.Min.Y
	dz1 := o.Max.Z - b.Min.Z
	dz2 := b.Max.Z - o.Min.Z

	min := dx1
	result := Vec3{X: dx1}
	if dx2 < min {
		min = dx2
		result = Vec3{X: -dx2}
	}
	if dy1 < min {
		min = dy1
		result = Vec3{Y: dy1}
	}
	if dy2 < min {
		min = dy2
		result = Vec3{Y: -dy2}
	}
	if dz1 < min {
		min = dz1
		result = Vec3{Z: dz1}
	}
	if dz2 < min {
		result = Vec3{Z: -dz2}
	}
	return result
}

// RayIntersect performs the slab test, grounded on physics.raycastBox,
// generalized to operate on a bare Box rather than a BoxCollider component.
func (b Box) RayIntersect(r Ray, maxDist float32) (float32, Vec3, bool) {
	var tmin, tmax float32

	if r.Direction.X != 0 {
		t1 := (b.Min.X - r.Origin.X) / r.Direction.X
		t2 := (b.Max.X - r.Origin.X) / r.Direction.X
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin, tmax = t1, t2
	} else if r.Origin.X < b.Min.X || r.Origin.X > b.Max.X {
		return 0, Vec3{}, false
	} else {
		tmin, tmax = -1e30, 1e30
	}

	if r.Direction.Y != 0 {
		t1 := (b.Min.Y - r.Origin.Y) / r.Direction.Y
		t2 := (b.Max.Y - r.Origin.Y) / r.Direction.Y
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	} else if r.Origin.Y < b.Min.Y || r.Origin.Y > b.Max.Y {
		return 0, Vec3{}, false
	}

	if tmin > tmax {
		return 0, Vec3{}, false
	}

	if r.Direction.Z != 0 {
		t1 := (b.Min.Z - r.Origin.Z) / r.Direction.Z
		t2 := (b.Max.Z - r.Origin.Z) / r.Direction.Z
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	} else if r.Origin.Z < b.Min.Z || r.Origin.Z > b.Max.Z {
		return 0, Vec3{}, false
	}

	if tmin > tmax || tmax < 0 || tmin > maxDist {
		return 0, Vec3{}, false
	}

	t := tmin
	if t < 0 {
		t = tmax
	}
	if t < 0 || t > maxDist {
		return 0, Vec3{}, false
	}

	point := rl.Vector3Add(r.Origin, rl.Vector3Scale(r.Direction, t))
	const eps = 0.001
	var normal Vec3
	switch {
	case absf(point.X-b.Min.X) < eps:
		normal = Vec3{X: -1}
	case absf(point.X-b.Max.X) < eps:
		normal = Vec3{X: 1}
	case absf(point.Y-b.Min.Y) < eps:
		normal = Vec3{Y: -1}
	case absf(point.Y-b.Max.Y) < eps:
		normal = Vec3{Y: 1}
	case absf(point.Z-b.Min.Z) < eps:
		normal = Vec3{Z: -1}
	default:
		normal = Vec3{Z: 1}
	}
	return t, normal, true
}

// Swept returns the box extended along direction*length, enclosing both the
// box's current position and its position after the sweep (spec §4.1 "swept
// extraction", used for continuous collision).
func (b Box) Swept(direction Vec3, length float32) Box {
	end := rl.Vector3Scale(direction, length)
	moved := Box{Min: rl.Vector3Add(b.Min, end), Max: rl.Vector3Add(b.Max, end)}
	return b.Union(moved)
}
