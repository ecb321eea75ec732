// Package meshslice implements spec §4.11: cutting a mesh by a single
// bounding triangle. It reuses the same triangle-triangle intersection and
// retriangulation machinery internal/boolean does, restricted to one mesh
// instead of two.
package meshslice

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
	"collidecore/internal/intersect"
	"collidecore/internal/mesh"
	"collidecore/internal/triangulate"
)

// Options controls the optional small-island discard step (spec §4.11
// step 4).
type Options struct {
	MinAreaFraction float32 // islands smaller than this * total area are dropped; 0 disables
	BuildOptions    mesh.BuildOptions
}

// DefaultOptions disables the minArea filter, matching the spec's
// "minArea > 0" opt-in wording.
func DefaultOptions() Options {
	return Options{MinAreaFraction: 0, BuildOptions: mesh.DefaultBuildOptions()}
}

// Slice cuts m by cut, splitting every triangle the cutting plane crosses
// into pieces along the cut segment (spec §4.11 steps 1-3), rebuilds the
// mesh, then optionally discards islands below MinAreaFraction of the
// total post-cut area (step 4).
func Slice(m *mesh.Mesh, cut geom.Triangle, opts Options) {
	triCount := m.TriCount()
	cutPlaneNormal := cut.Normal

	var survivors []geom.Triangle
	for t := 0; t < triCount; t++ {
		tri := m.TriangleAt(t)
		p0, p1, ok := intersect.DefaultCatalog.IntersectTriangleTriangle(tri, cut)
		if !ok {
			survivors = append(survivors, tri)
			continue
		}
		pieces := splitAlongSegment(tri, p0, p1, cutPlaneNormal, m.MinVtxDist)
		survivors = append(survivors, pieces...)
	}

	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
	for _, tri := range survivors {
		i0 := appendVertex(m, tri.V0)
		i1 := appendVertex(m, tri.V1)
		i2 := appendVertex(m, tri.V2)
		m.Indices = append(m.Indices, i0, i1, i2)
	}
	m.Build(opts.BuildOptions)

	if opts.MinAreaFraction > 0 {
		dropSmallIslands(m, opts)
	}
}

// splitAlongSegment snaps the cut endpoints to tri's vertices when within
// minlen^2 (spec §4.11 step 1) and otherwise splits tri into three
// sub-triangles fanned around the cut segment.
func splitAlongSegment(tri geom.Triangle, p0, p1, planeNormal geom.Vec3, minlen float32) []geom.Triangle {
	snap := func(p geom.Vec3) geom.Vec3 {
		if rl.Vector3Distance(p, tri.V0) <= minlen {
			return tri.V0
		}
		if rl.Vector3Distance(p, tri.V1) <= minlen {
			return tri.V1
		}
		if rl.Vector3Distance(p, tri.V2) <= minlen {
			return tri.V2
		}
		return p
	}
	a, b := snap(p0), snap(p1)

	poly := triangulate.Polygon{
		Outer: triangulate.Contour{Points: []geom.Vec3{tri.V0, tri.V1, tri.V2, a, b}},
		Plane: geom.Plane{Point: tri.V0, Normal: tri.Normal},
	}
	res, err := triangulate.Triangulate(poly)
	if err != nil {
		return []geom.Triangle{tri}
	}
	out := make([]geom.Triangle, 0, len(res.Triangles))
	for _, idx := range res.Triangles {
		out = append(out, geom.NewTriangle(res.Vertices[idx[0]], res.Vertices[idx[1]], res.Vertices[idx[2]]))
	}
	return out
}

func appendVertex(m *mesh.Mesh, v geom.Vec3) int32 {
	for i, existing := range m.Vertices {
		if rl.Vector3Distance(existing, v) <= 1e-6 {
			return int32(i)
		}
	}
	m.Vertices = append(m.Vertices, v)
	return int32(len(m.Vertices) - 1)
}

// dropSmallIslands removes every island whose share of the total surface
// area falls below MinAreaFraction, per spec §4.11 step 4.
func dropSmallIslands(m *mesh.Mesh, opts Options) {
	if len(m.Islands) <= 1 {
		return
	}
	totalArea := float32(0)
	islandArea := make([]float32, len(m.Islands))
	for idx, isl := range m.Islands {
		for _, t := range isl.Triangles {
			a := m.TriangleAt(int(t)).Area()
			islandArea[idx] += a
			totalArea += a
		}
	}
	if totalArea <= 0 {
		return
	}

	keep := make([]bool, m.TriCount())
	for i := range keep {
		keep[i] = true
	}
	for idx, isl := range m.Islands {
		if islandArea[idx] < opts.MinAreaFraction*totalArea {
			for _, t := range isl.Triangles {
				keep[t] = false
			}
		}
	}

	newIdx := make([]int32, 0, len(m.Indices))
	for t := 0; t < m.TriCount(); t++ {
		if !keep[t] {
			continue
		}
		newIdx = append(newIdx, m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2])
	}
	m.Indices = newIdx
	m.Build(opts.BuildOptions)
}
