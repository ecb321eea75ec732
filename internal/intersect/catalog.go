// Package intersect is the pairwise intersector catalog the spec treats as
// an opaque external collaborator (§1, §9 "intersector catalog is a
// trait-object boundary"): the mesh, boolean and meshslice packages call
// it without knowing which primitive kinds are on either side. This
// package supplies the catalog's default, in-process registration.
package intersect

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
)

// UnprojMode selects how Unproject measures separation.
type UnprojMode int

const (
	UnprojLinear UnprojMode = iota
	UnprojRotational
)

// Contact mirrors the spec's §6 contact record, trimmed to the fields this
// core actually produces (no network/engine-specific ids).
type Contact struct {
	Point    geom.Vec3
	Normal   geom.Vec3
	Depth    float32
	FeatureA int
	FeatureB int
}

// Catalog dispatches pairwise geometric queries. The core never performs a
// primitive-pair test directly; it always goes through a Catalog so new
// primitive kinds can be added without touching the BVH/mesh packages.
type Catalog interface {
	OverlapBoxBox(a, b geom.Box) bool
	OverlapOBBOBB(a, b geom.OBB) bool
	OverlapSphereTriangle(s geom.Sphere, t geom.Triangle) (bool, Contact)
	OverlapSphereBox(s geom.Sphere, b geom.Box) bool
	IntersectTriangleTriangle(a, b geom.Triangle) (geom.Vec3, geom.Vec3, bool)
	IntersectRayTriangle(r geom.Ray, t geom.Triangle, maxDist float32) (float32, bool)
	Unproject(mode UnprojMode, a, b geom.Box) geom.Vec3
}

type defaultCatalog struct{}

// DefaultCatalog is the in-process Catalog implementation backing every
// package in this module; grounded on physics.obb.go's SAT routines and
// components.meshcollider.go's sphere/triangle tests.
var DefaultCatalog Catalog = defaultCatalog{}

func (defaultCatalog) OverlapBoxBox(a, b geom.Box) bool {
	return a.Intersects(b)
}

func (defaultCatalog) OverlapOBBOBB(a, b geom.OBB) bool {
	return a.Intersects(b)
}

func (defaultCatalog) OverlapSphereTriangle(s geom.Sphere, t geom.Triangle) (bool, Contact) {
	hit, push := geom.SphereIntersectsTriangle(s, t)
	if !hit {
		return false, Contact{}
	}
	return true, Contact{
		Point:  geom.ClosestPointOnTriangle(s.Center, t.V0, t.V1, t.V2),
		Normal: rl.Vector3Normalize(push),
		Depth:  rl.Vector3Length(push),
	}
}

func (defaultCatalog) OverlapSphereBox(s geom.Sphere, b geom.Box) bool {
	closest := geom.Vec3{
		X: clampf(s.Center.X, b.Min.X, b.Max.X),
		Y: clampf(s.Center.Y, b.Min.Y, b.Max.Y),
		Z: clampf(s.Center.Z, b.Min.Z, b.Max.Z),
	}
	d := rl.Vector3Subtract(s.Center, closest)
	return rl.Vector3DotProduct(d, d) <= s.Radius*s.Radius
}

// IntersectTriangleTriangle computes the segment where two non-coplanar
// triangles cross, using the Moller 1997 interval-overlap method. Returns
// ok=false when the triangles don't intersect, and also for coplanar
// triangles, whose overlap region is not reported.
func (defaultCatalog) IntersectTriangleTriangle(a, b geom.Triangle) (geom.Vec3, geom.Vec3, bool) {
	// Signed distances of a's vertices from b's plane.
	d := func(p geom.Vec3) float32 {
		return rl.Vector3DotProduct(b.Normal, rl.Vector3Subtract(p, b.V0))
	}
	da0, da1, da2 := d(a.V0), d(a.V1), d(a.V2)
	if same(da0, da1, da2) {
		return geom.Vec3{}, geom.Vec3{}, false
	}

	d2 := func(p geom.Vec3) float32 {
		return rl.Vector3DotProduct(a.Normal, rl.Vector3Subtract(p, a.V0))
	}
	db0, db1, db2 := d2(b.V0), d2(b.V1), d2(b.V2)
	if same(db0, db1, db2) {
		return geom.Vec3{}, geom.Vec3{}, false
	}

	line := rl.Vector3CrossProduct(a.Normal, b.Normal)
	if rl.Vector3Length(line) < 1e-8 {
		return geom.Vec3{}, geom.Vec3{}, false
	}

	dir := rl.Vector3Normalize(line)
	pa0, pa1 := projectOnLine(a.V0, dir), projectOnLine(a.V1, dir)
	pa2 := projectOnLine(a.V2, dir)
	pb0, pb1 := projectOnLine(b.V0, dir), projectOnLine(b.V1, dir)
	pb2 := projectOnLine(b.V2, dir)

	aMin, aMax := intervalFromSigns(pa0, pa1, pa2, da0, da1, da2)
	bMin, bMax := intervalFromSigns(pb0, pb1, pb2, db0, db1, db2)

	lo := maxf(aMin, bMin)
	hi := minf(aMax, bMax)
	if lo > hi {
		return geom.Vec3{}, geom.Vec3{}, false
	}

	// origin is the point of the intersection line nearest the world
	// origin: it lies on both planes and is perpendicular to dir, so the
	// projections above are offsets from it along dir.
	ha := rl.Vector3DotProduct(a.Normal, a.V0)
	hb := rl.Vector3DotProduct(b.Normal, b.V0)
	k := rl.Vector3Subtract(rl.Vector3Scale(b.Normal, ha), rl.Vector3Scale(a.Normal, hb))
	origin := rl.Vector3Scale(rl.Vector3CrossProduct(k, line), 1/rl.Vector3DotProduct(line, line))
	p0 := rl.Vector3Add(origin, rl.Vector3Scale(dir, lo))
	p1 := rl.Vector3Add(origin, rl.Vector3Scale(dir, hi))
	return p0, p1, true
}

// IntersectRayTriangle is the Moller-Trumbore ray/triangle test.
func (defaultCatalog) IntersectRayTriangle(r geom.Ray, t geom.Triangle, maxDist float32) (float32, bool) {
	const eps = 1e-7
	e1 := rl.Vector3Subtract(t.V1, t.V0)
	e2 := rl.Vector3Subtract(t.V2, t.V0)
	h := rl.Vector3CrossProduct(r.Direction, e2)
	a := rl.Vector3DotProduct(e1, h)
	if a > -eps && a < eps {
		return 0, false
	}
	f := 1.0 / a
	s := rl.Vector3Subtract(r.Origin, t.V0)
	u := f * rl.Vector3DotProduct(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := rl.Vector3CrossProduct(s, e1)
	v := f * rl.Vector3DotProduct(r.Direction, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := f * rl.Vector3DotProduct(e2, q)
	if dist < eps || dist > maxDist {
		return 0, false
	}
	return dist, true
}

// Unproject returns the linear or rotational separation vector between two
// boxes, per spec §6's iUnprojectionMode parameter. The rotational mode is
// approximated by the same MTV as the linear mode since this core never
// simulates angular sweeps (no dynamics, per Non-goals) — the mode
// parameter exists so callers can request either without a signature
// change if continuous rotation support is added later.
func (defaultCatalog) Unproject(mode UnprojMode, a, b geom.Box) geom.Vec3 {
	return a.Resolve(b)
}

func same(a, b, c float32) bool {
	return (a > 0 && b > 0 && c > 0) || (a < 0 && b < 0 && c < 0)
}

func projectOnLine(p, line geom.Vec3) float32 {
	return rl.Vector3DotProduct(p, line)
}

func intervalFromSigns(p0, p1, p2, d0, d1, d2 float32) (float32, float32) {
	pts := [3]float32{p0, p1, p2}
	ds := [3]float32{d0, d1, d2}
	lo := float32(math.MaxFloat32)
	hi := float32(-math.MaxFloat32)
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		if (ds[i] <= 0 && ds[j] >= 0) || (ds[i] >= 0 && ds[j] <= 0) {
			if ds[i] == ds[j] {
				continue
			}
			t := ds[i] / (ds[i] - ds[j])
			p := pts[i] + t*(pts[j]-pts[i])
			lo = minf(lo, p)
			hi = maxf(hi, p)
		}
	}
	return lo, hi
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
