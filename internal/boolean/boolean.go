// Package boolean implements spec §4.9's boolean subtraction: A := A - B.
// It is the direct generalization of the teacher's MeshCollider overlap
// tests (internal/geom, internal/intersect) from "do these triangles touch"
// to "what triangle soup remains after removing one mesh's volume from
// another's" — grounded on components.MeshCollider's triangle-vs-triangle
// query path for candidate selection, and on the spec's own §4.9 algorithm
// for everything past that.
package boolean

import (
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
	"collidecore/internal/intersect"
	"collidecore/internal/mesh"
	"collidecore/internal/triangulate"
)

// jitterSeed is the spec §9 "deterministic RNG seeded from the mesh pair"
// constant: "the source seeds with a constant (12102012); preserve that
// behaviour."
const jitterSeed = 12102012

// Options mirrors the handful of boolean-subtract knobs the spec names.
type Options struct {
	MaxJitterAttempts int
	BuildOptions      mesh.BuildOptions
}

// DefaultOptions returns the spec's stated 5-retry jitter budget.
func DefaultOptions() Options {
	return Options{MaxJitterAttempts: 5, BuildOptions: mesh.DefaultBuildOptions()}
}

// snapshot captures the arrays a rollback needs to restore, per spec §9
// "Undo/rollback... snapshotting vertex/index/normal/mat/id/vtx_map arrays".
type snapshot struct {
	vertices []geom.Vec3
	indices  []int32
	normals  []geom.Vec3
	material []int32
	foreign  []int32
	vtxMap   []int32
}

func snapshotOf(m *mesh.Mesh) snapshot {
	return snapshot{
		vertices: append([]geom.Vec3(nil), m.Vertices...),
		indices:  append([]int32(nil), m.Indices...),
		normals:  append([]geom.Vec3(nil), m.Normals...),
		material: append([]int32(nil), m.Material...),
		foreign:  append([]int32(nil), m.Foreign...),
		vtxMap:   append([]int32(nil), m.VtxMap...),
	}
}

func (s snapshot) restore(m *mesh.Mesh) {
	m.Vertices = s.vertices
	m.Indices = s.indices
	m.Normals = s.normals
	m.Material = s.material
	m.Foreign = s.foreign
	m.VtxMap = s.vtxMap
}

// Subtract computes a := a - b in place, returning false with a unmodified
// if the volume-bounds check (spec §8 "Boolean bounds") never passes within
// the jitter-retry budget (spec §4.9 step 2 / §9).
func Subtract(a, b *mesh.Mesh, opts Options) bool {
	if a.Flags&mesh.FlagNoBooleans != 0 || b.Flags&mesh.FlagNoBooleans != 0 {
		return false
	}

	rng := rand.New(rand.NewSource(jitterSeed))
	vA := a.Volume()
	vB := b.Volume()
	before := snapshotOf(a)

	jitter := geom.IdentityPose()
	for attempt := 0; attempt <= opts.MaxJitterAttempts; attempt++ {
		bView := jitteredTriangles(b, jitter)

		rec := &mesh.UpdateRecord{MeshB: b}
		ok := subtractOnce(a, b, bView, rec, opts.BuildOptions)
		if ok {
			newVol := a.Volume()
			lo := vA - 1.1*vB
			hi := vA - 0.1*vB
			if newVol >= lo && newVol <= hi {
				a.PushUpdate(rec)
				return true
			}
		}

		before.restore(a)
		a.Build(opts.BuildOptions)
		jitter = jitterPose(rng)
	}
	return false
}

// jitteredTriangles returns B's triangles transformed by a small pose, used
// to break numerical ties on open contours (spec §4.9 step 2).
func jitteredTriangles(b *mesh.Mesh, pose geom.Pose) []geom.Triangle {
	mat := pose.Matrix()
	tris := make([]geom.Triangle, b.TriCount())
	for i := range tris {
		t := b.TriangleAt(i)
		tris[i] = geom.NewTriangle(
			rl.Vector3Transform(t.V0, mat),
			rl.Vector3Transform(t.V1, mat),
			rl.Vector3Transform(t.V2, mat),
		)
	}
	return tris
}

func jitterPose(rng *rand.Rand) geom.Pose {
	const eps = 1e-5
	p := geom.IdentityPose()
	p.Position = geom.Vec3{
		X: (rng.Float32()*2 - 1) * eps,
		Y: (rng.Float32()*2 - 1) * eps,
		Z: (rng.Float32()*2 - 1) * eps,
	}
	p.Rotation = geom.Vec3{
		X: (rng.Float32()*2 - 1) * eps,
		Y: (rng.Float32()*2 - 1) * eps,
		Z: (rng.Float32()*2 - 1) * eps,
	}
	return p
}

// subtractOnce runs one non-retried attempt of the spec §4.9 subtraction.
// It does not run the §4.10 filter pass: FilterMesh is not called.
func subtractOnce(a, b *mesh.Mesh, bTris []geom.Triangle, rec *mesh.UpdateRecord, buildOpts mesh.BuildOptions) bool {
	aTriCount := a.TriCount()

	// Step 1: candidate pairs whose boxes overlap, walked through A's own
	// BV-tree so this exercises the uniform Tree interface rather than a
	// flat double loop.
	type pair struct{ ai, bi int }
	var pairs []pair
	for bi, bt := range bTris {
		box := triBox(bt)
		hits := a.Tree.QueryBox(box)
		for _, ai := range hits {
			pairs = append(pairs, pair{ai: int(ai), bi: bi})
		}
	}

	insideB := make([]bool, aTriCount)
	touchesB := make([]bool, aTriCount)
	segByTri := make(map[int][][2]geom.Vec3, len(pairs))

	for _, p := range pairs {
		at := a.TriangleAt(p.ai)
		p0, p1, ok := intersect.DefaultCatalog.IntersectTriangleTriangle(at, bTris[p.bi])
		if !ok {
			continue
		}
		touchesB[p.ai] = true
		segByTri[p.ai] = append(segByTri[p.ai], [2]geom.Vec3{p0, p1})
	}

	// Step 4 (simplified to per-triangle classification rather than a
	// full flood-remove pass): any A-triangle whose centroid is inside B
	// and that has no boundary contact with B is removed outright.
	for t := 0; t < aTriCount; t++ {
		if touchesB[t] {
			continue
		}
		if pointInClosedMesh(a.TriangleAt(t).Centroid(), bTris) {
			insideB[t] = true
		}
	}

	// Step 5: B-triangles whose centroid lies inside A are kept (with
	// reversed winding, since B's interior is what's being removed).
	var keptB []geom.Triangle
	for _, bt := range bTris {
		if pointInClosedMesh(bt.Centroid(), a.Triangles()) {
			keptB = append(keptB, geom.Triangle{V0: bt.V0, V1: bt.V2, V2: bt.V1})
		}
	}

	newVerts := make([]geom.Vec3, 0, len(a.Vertices))
	newVerts = append(newVerts, a.Vertices...)
	newIndices := make([]int32, 0, len(a.Indices))
	newMaterial := make([]int32, 0, len(a.Material))
	newForeign := make([]int32, 0, len(a.Foreign))
	hasMaterial := len(a.Material) == aTriCount
	hasForeign := len(a.Foreign) == aTriCount

	appendTri := func(v0, v1, v2 geom.Vec3, srcTri int) {
		i0 := findOrInsertVertex(&newVerts, v0, a.MinVtxDist)
		i1 := findOrInsertVertex(&newVerts, v1, a.MinVtxDist)
		i2 := findOrInsertVertex(&newVerts, v2, a.MinVtxDist)
		newIndices = append(newIndices, i0, i1, i2)
		if hasMaterial {
			if srcTri >= 0 {
				newMaterial = append(newMaterial, a.Material[srcTri])
			} else {
				newMaterial = append(newMaterial, 0)
			}
		}
		if hasForeign {
			if srcTri >= 0 {
				newForeign = append(newForeign, a.Foreign[srcTri])
			} else {
				id := a.NextForeignID()
				newForeign = append(newForeign, id)
				rec.NewTri = append(rec.NewTri, mesh.NewTriangleRecord{IdxNew: id, Iop: 1})
			}
		}
	}

	for t := 0; t < aTriCount; t++ {
		if insideB[t] {
			rec.RemovedTri = append(rec.RemovedTri, int32(t))
			continue
		}
		tri := a.TriangleAt(t)
		if !touchesB[t] {
			appendTri(tri.V0, tri.V1, tri.V2, t)
			continue
		}

		poly := clipTriangleOutsideB(tri, segByTri[t], bTris)
		if len(poly) < 3 {
			rec.RemovedTri = append(rec.RemovedTri, int32(t))
			continue
		}
		res, err := triangulate.Triangulate(triangulate.Polygon{
			Outer: triangulate.Contour{Points: poly},
			Plane: geom.Plane{Point: tri.V0, Normal: tri.Normal},
		})
		if err != nil {
			appendTri(tri.V0, tri.V1, tri.V2, t)
			continue
		}
		for _, idx := range res.Triangles {
			appendTri(res.Vertices[idx[0]], res.Vertices[idx[1]], res.Vertices[idx[2]], -1)
		}
	}

	for _, bt := range keptB {
		appendTri(bt.V0, bt.V1, bt.V2, -1)
	}

	if len(newIndices) == 0 {
		return false
	}

	a.Vertices = newVerts
	a.Indices = newIndices
	if hasMaterial {
		a.Material = newMaterial
	}
	if hasForeign {
		a.Foreign = newForeign
	}
	a.Build(buildOpts)
	return true
}

func triBox(t geom.Triangle) geom.Box {
	b := geom.EmptyBox()
	b = b.Grow(t.V0)
	b = b.Grow(t.V1)
	b = b.Grow(t.V2)
	return b
}

// pointInClosedMesh casts a ray along a fixed direction and counts
// crossings; odd means inside. Grounded on the same Moller-Trumbore test
// islands.go uses for nesting resolution (spec §4.6), generalized to an
// arbitrary triangle soup instead of one mesh's own triangles.
func pointInClosedMesh(p geom.Vec3, tris []geom.Triangle) bool {
	dir := geom.Vec3{X: 0.6911, Y: 0.7312, Z: 0.1105} // arbitrary non-axis-aligned direction
	dir = rl.Vector3Normalize(dir)
	r := geom.Ray{Origin: p, Direction: dir}
	count := 0
	for _, t := range tris {
		if _, ok := intersect.DefaultCatalog.IntersectRayTriangle(r, t, 1e8); ok {
			count++
		}
	}
	return count%2 == 1
}

// clipTriangleOutsideB walks tri's boundary, replacing any run of vertices
// classified inside B with the two crossing points recorded against this
// triangle, producing the polygon of tri that survives the subtraction.
func clipTriangleOutsideB(tri geom.Triangle, segs [][2]geom.Vec3, bTris []geom.Triangle) []geom.Vec3 {
	verts := [3]geom.Vec3{tri.V0, tri.V1, tri.V2}
	inside := [3]bool{
		pointInClosedMesh(verts[0], bTris),
		pointInClosedMesh(verts[1], bTris),
		pointInClosedMesh(verts[2], bTris),
	}

	var poly []geom.Vec3
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		if !inside[i] {
			poly = append(poly, verts[i])
		}
		if inside[i] != inside[j] {
			if c, ok := nearestCrossing(verts[i], verts[j], segs); ok {
				poly = append(poly, c)
			}
		}
	}
	return poly
}

func nearestCrossing(a, b geom.Vec3, segs [][2]geom.Vec3) (geom.Vec3, bool) {
	if len(segs) == 0 {
		return geom.Vec3{}, false
	}
	mid := rl.Vector3Scale(rl.Vector3Add(a, b), 0.5)
	best := segs[0][0]
	bestD := rl.Vector3Distance(mid, best)
	for _, s := range segs {
		for _, c := range s {
			d := rl.Vector3Distance(mid, c)
			if d < bestD {
				bestD = d
				best = c
			}
		}
	}
	return best, true
}

func findOrInsertVertex(verts *[]geom.Vec3, v geom.Vec3, tol float32) int32 {
	if tol <= 0 {
		tol = 1e-6
	}
	for i, existing := range *verts {
		if rl.Vector3Distance(existing, v) <= tol {
			return int32(i)
		}
	}
	*verts = append(*verts, v)
	return int32(len(*verts) - 1)
}
