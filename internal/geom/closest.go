package geom

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ClosestPointOnTriangle finds the closest point on triangle (a,b,c) to p
// using Ericson-style barycentric region classification, grounded verbatim
// in shape on components.closestPointOnTriangle.
func ClosestPointOnTriangle(p, a, b, c Vec3) Vec3 {
	ab := rl.Vector3Subtract(b, a)
	ac := rl.Vector3Subtract(c, a)
	ap := rl.Vector3Subtract(p, a)

	d1 := rl.Vector3DotProduct(ab, ap)
	d2 := rl.Vector3DotProduct(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := rl.Vector3Subtract(p, b)
	d3 := rl.Vector3DotProduct(ab, bp)
	d4 := rl.Vector3DotProduct(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return rl.Vector3Add(a, rl.Vector3Scale(ab, v))
	}

	cp := rl.Vector3Subtract(p, c)
	d5 := rl.Vector3DotProduct(ab, cp)
	d6 := rl.Vector3DotProduct(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return rl.Vector3Add(a, rl.Vector3Scale(ac, w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return rl.Vector3Add(b, rl.Vector3Scale(rl.Vector3Subtract(c, b), w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return rl.Vector3Add(a, rl.Vector3Add(rl.Vector3Scale(ab, v), rl.Vector3Scale(ac, w)))
}

// SphereIntersectsTriangle tests a sphere against a triangle and, on hit,
// returns the push-out vector that separates them — grounded on
// components.sphereTriangleIntersect.
func SphereIntersectsTriangle(s Sphere, t Triangle) (bool, Vec3) {
	closest := ClosestPointOnTriangle(s.Center, t.V0, t.V1, t.V2)
	diff := rl.Vector3Subtract(s.Center, closest)
	distSq := rl.Vector3DotProduct(diff, diff)
	if distSq >= s.Radius*s.Radius {
		return false, Vec3{}
	}

	dist := float32(math.Sqrt(float64(distSq)))
	if dist < 1e-4 {
		return true, rl.Vector3Scale(t.Normal, s.Radius)
	}
	pushDir := rl.Vector3Scale(diff, 1.0/dist)
	penetration := s.Radius - dist
	return true, rl.Vector3Scale(pushDir, penetration)
}
