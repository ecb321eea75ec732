// Package floodfill implements spec §4.12: vessel floodfill used for
// buoyancy. It finds the water-plane height at which the submerged part of
// a closed mesh reaches a target volume, by bisecting that height over the
// mesh's whole extent along gravity.
package floodfill

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

// Floater is an external mesh whose submerged part adds to the vessel's
// volume at levels where floaterCounts accepts it.
type Floater struct {
	Mesh *mesh.Mesh
	Pose geom.Pose
}

// Result is the floodfill output: the submerged volume actually reached,
// the water-plane offset, and the waterline polygon in world space.
type Result struct {
	Volume    float32
	WaterLine []geom.Vec3 // in world space
	Level     float32     // water-plane offset along Gravity
}

// Options bounds the bisection loop (spec §4.12 step 4: "≤ 100 bisection
// steps").
type Options struct {
	Tolerance      float32
	MaxBisections  int
}

func DefaultOptions() Options {
	return Options{Tolerance: 1e-3, MaxBisections: 100}
}

// FloodFill bisects the water-plane offset along gravity, between the
// lowest and highest vertices of the mesh and its floaters, until the
// submerged volume is within Tolerance of targetVolume, and returns the
// waterline polygon at that offset. reference is not used: the search
// always covers the whole mesh instead of growing from a starting point.
// gravity need not be unit length; it is normalized internally.
func FloodFill(m *mesh.Mesh, reference, gravity geom.Vec3, targetVolume float32, floaters []Floater, opts Options) (Result, bool) {
	g := rl.Vector3Normalize(gravity)

	// The level range spans every vertex along gravity; the volume at a
	// level is computed directly over all triangles, with no triangle
	// frontier grown from a starting triangle.
	if m.TriCount() == 0 {
		return Result{}, false
	}

	lo, hi := levelBounds(m, g)
	for _, f := range floaters {
		flo, fhi := levelBoundsTransformed(f.Mesh, f.Pose, g)
		lo = minf(lo, flo)
		hi = maxf(hi, fhi)
	}

	volumeAt := func(level float32) float32 {
		v := submergedVolume(m, geom.IdentityPose(), g, level)
		for _, f := range floaters {
			if floaterCounts(f, g, level) {
				v += submergedVolume(f.Mesh, f.Pose, g, level)
			}
		}
		return v
	}

	full := volumeAt(lo)
	if targetVolume >= full {
		return Result{Volume: full, Level: lo, WaterLine: waterLinePolygon(m, geom.IdentityPose(), g, lo)}, true
	}
	if targetVolume <= 0 {
		return Result{Volume: 0, Level: hi}, true
	}

	level := hi
	for i := 0; i < opts.MaxBisections; i++ {
		mid := (lo + hi) / 2
		v := volumeAt(mid)
		if absf(v-targetVolume) <= opts.Tolerance {
			level = mid
			break
		}
		// volume is decreasing in level (higher level = less submerged).
		if v > targetVolume {
			lo = mid
		} else {
			hi = mid
		}
		level = mid
	}

	return Result{
		Volume:    volumeAt(level),
		Level:     level,
		WaterLine: waterLinePolygon(m, geom.IdentityPose(), g, level),
	}, true
}

func levelBounds(m *mesh.Mesh, g geom.Vec3) (float32, float32) {
	return levelBoundsTransformed(m, geom.IdentityPose(), g)
}

func levelBoundsTransformed(m *mesh.Mesh, pose geom.Pose, g geom.Vec3) (float32, float32) {
	mat := pose.Matrix()
	lo := float32(1e30)
	hi := float32(-1e30)
	for _, v := range m.Vertices {
		wv := rl.Vector3Transform(v, mat)
		s := rl.Vector3DotProduct(wv, g)
		lo = minf(lo, s)
		hi = maxf(hi, s)
	}
	return lo, hi
}

// submergedVolume computes the mesh volume with s(v) = dot(v,g) >= level,
// via the plane-reference tetrahedron trick: using any point on the
// cutting plane as the reference for the signed-tetra-volume sum makes the
// (unmodeled) planar cap contribute exactly zero, so the sum over clipped
// triangles alone gives the enclosed submerged volume.
func submergedVolume(m *mesh.Mesh, pose geom.Pose, g geom.Vec3, level float32) float32 {
	mat := pose.Matrix()
	ref := rl.Vector3Scale(g, level)
	var vol float32
	for i := 0; i < m.TriCount(); i++ {
		tri := m.TriangleAt(i)
		wt := geom.Triangle{
			V0: rl.Vector3Transform(tri.V0, mat),
			V1: rl.Vector3Transform(tri.V1, mat),
			V2: rl.Vector3Transform(tri.V2, mat),
		}
		for _, sub := range clipTriangleSubmerged(wt, g, level) {
			vol += tetraVolume(sub.V0, sub.V1, sub.V2, ref)
		}
	}
	return vol
}

func tetraVolume(v0, v1, v2, ref geom.Vec3) float32 {
	a := rl.Vector3Subtract(v0, ref)
	b := rl.Vector3Subtract(v1, ref)
	c := rl.Vector3Subtract(v2, ref)
	cross := rl.Vector3CrossProduct(a, b)
	return rl.Vector3DotProduct(cross, c) / 6.0
}

// clipTriangleSubmerged clips a triangle against the half-space
// dot(v,g) >= level, fan-triangulating the resulting 0-4 sided polygon.
func clipTriangleSubmerged(t geom.Triangle, g geom.Vec3, level float32) []geom.Triangle {
	verts := [3]geom.Vec3{t.V0, t.V1, t.V2}
	s := func(v geom.Vec3) float32 { return rl.Vector3DotProduct(v, g) - level }

	var poly []geom.Vec3
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		si, sj := s(verts[i]), s(verts[j])
		if si >= 0 {
			poly = append(poly, verts[i])
		}
		if (si >= 0) != (sj >= 0) {
			frac := si / (si - sj)
			poly = append(poly, rl.Vector3Lerp(verts[i], verts[j], frac))
		}
	}
	if len(poly) < 3 {
		return nil
	}
	out := make([]geom.Triangle, 0, len(poly)-2)
	for k := 1; k < len(poly)-1; k++ {
		out = append(out, geom.NewTriangle(poly[0], poly[k], poly[k+1]))
	}
	return out
}

// waterLinePolygon extracts the polygon where the mesh surface crosses the
// final water plane (spec §4.12 step 5), chaining clip-segment endpoints
// by nearest match.
func waterLinePolygon(m *mesh.Mesh, pose geom.Pose, g geom.Vec3, level float32) []geom.Vec3 {
	mat := pose.Matrix()
	var segments [][2]geom.Vec3
	for i := 0; i < m.TriCount(); i++ {
		tri := m.TriangleAt(i)
		wt := geom.Triangle{
			V0: rl.Vector3Transform(tri.V0, mat),
			V1: rl.Vector3Transform(tri.V1, mat),
			V2: rl.Vector3Transform(tri.V2, mat),
		}
		if seg, ok := planeCrossing(wt, g, level); ok {
			segments = append(segments, seg)
		}
	}
	return chainSegments(segments)
}

func planeCrossing(t geom.Triangle, g geom.Vec3, level float32) ([2]geom.Vec3, bool) {
	verts := [3]geom.Vec3{t.V0, t.V1, t.V2}
	s := func(v geom.Vec3) float32 { return rl.Vector3DotProduct(v, g) - level }
	var pts []geom.Vec3
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		si, sj := s(verts[i]), s(verts[j])
		if (si >= 0) != (sj >= 0) {
			frac := si / (si - sj)
			pts = append(pts, rl.Vector3Lerp(verts[i], verts[j], frac))
		}
	}
	if len(pts) != 2 {
		return [2]geom.Vec3{}, false
	}
	return [2]geom.Vec3{pts[0], pts[1]}, true
}

func chainSegments(segments [][2]geom.Vec3) []geom.Vec3 {
	if len(segments) == 0 {
		return nil
	}
	used := make([]bool, len(segments))
	chain := []geom.Vec3{segments[0][0], segments[0][1]}
	used[0] = true
	for {
		tail := chain[len(chain)-1]
		best := -1
		bestFlip := false
		bestD := float32(1e30)
		for i, seg := range segments {
			if used[i] {
				continue
			}
			if d := rl.Vector3Distance(tail, seg[0]); d < bestD {
				bestD, best, bestFlip = d, i, false
			}
			if d := rl.Vector3Distance(tail, seg[1]); d < bestD {
				bestD, best, bestFlip = d, i, true
			}
		}
		if best < 0 || bestD > 1e-2 {
			break
		}
		used[best] = true
		if bestFlip {
			chain = append(chain, segments[best][0])
		} else {
			chain = append(chain, segments[best][1])
		}
	}
	return chain
}

// floaterCounts reports whether a floater contributes at the given level:
// true when the centre of its bounding box, posed into world space, lies at
// or below the water plane (dot(centre, g) >= level). No ray is cast
// against any triangle.
func floaterCounts(f Floater, g geom.Vec3, level float32) bool {
	center := f.Mesh.Bounds().Center()
	world := rl.Vector3Transform(center, f.Pose.Matrix())
	return rl.Vector3DotProduct(world, g) >= level
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
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
