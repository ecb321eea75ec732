package mesh

import (
	"sort"

	"collidecore/internal/bvh"
	"collidecore/internal/geom"
)

// BuildOptions controls the spec §4.3 build pipeline.
type BuildOptions struct {
	MergeVertices      bool
	CullDegenerate     bool
	MergeTolerance     float32
	MinTrisForTree     int
	Params             bvh.BuildParams
}

// DefaultBuildOptions matches the spec's stated constants (merge tolerance
// 1e-5, min_vtx_dist computed post-build).
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MergeVertices:  true,
		CullDegenerate: true,
		MergeTolerance: 1e-5,
		MinTrisForTree: 8,
		Params:         bvh.DefaultBuildParams(),
	}
}

// Build runs the spec §4.3 pipeline: optional vertex merge, degenerate cull,
// valency (implicit in topology), tree selection, normal recompute,
// topology, islands, convexity.
func (m *Mesh) Build(opts BuildOptions) {
	guard := m.LockForMutation()
	defer guard()

	if opts.MergeVertices && m.Flags&FlagNoVtxMerge == 0 {
		m.mergeCoincidentVertices(opts.MergeTolerance)
	}
	if opts.CullDegenerate {
		m.cullDegenerateTriangles()
	}

	m.rebuildTreeLocked(opts)
	m.recomputeNormals()
	m.rebuildTopologyLocked()
	m.rebuildIslandsLocked()
	m.convexity.clear()

	b := m.Bounds()
	ext := b.Size()
	maxExt := ext.X
	if ext.Y > maxExt {
		maxExt = ext.Y
	}
	if ext.Z > maxExt {
		maxExt = ext.Z
	}
	m.MinVtxDist = 0.0002 * maxExt

	m.InvalidateHashGrid()
}

// mergeCoincidentVertices implements spec §4.3 step 1: sort by each axis,
// intersect "nearby" lists, build a canonical-id map, remap indices.
func (m *Mesh) mergeCoincidentVertices(tol float32) {
	n := len(m.Vertices)
	if n == 0 {
		return
	}

	order := func(axis int) []int {
		o := make([]int, n)
		for i := range o {
			o[i] = i
		}
		sort.Slice(o, func(a, b int) bool {
			return geom.AxisValue(m.Vertices[o[a]], axis) < geom.AxisValue(m.Vertices[o[b]], axis)
		})
		return o
	}

	canonical := make([]int32, n)
	for i := range canonical {
		canonical[i] = int32(i)
	}

	// A simpler, equivalent formulation of "intersection of nearby lists":
	// sort by X, then within a tolerance window on X also require Y and Z to
	// match — this reaches the same equivalence classes as intersecting the
	// three per-axis neighbor lists, without materializing three sorted
	// index arrays worth of bookkeeping.
	xs := order(0)
	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := xs[i], xs[j]
			if geom.AxisValue(m.Vertices[b], 0)-geom.AxisValue(m.Vertices[a], 0) > tol {
				break
			}
			va, vb := m.Vertices[a], m.Vertices[b]
			if absf(va.Y-vb.Y) <= tol && absf(va.Z-vb.Z) <= tol {
				uf.union(a, b)
			}
		}
	}
	for i := 0; i < n; i++ {
		canonical[i] = int32(uf.find(i))
	}

	for i := range m.Indices {
		m.Indices[i] = canonical[m.Indices[i]]
	}
	if m.Flags&FlagKeepVtxMap != 0 {
		m.VtxMap = canonical
	}
}

// cullDegenerateTriangles drops any triangle whose three (canonical)
// indices are not distinct, compacting the remaining triangles in order
// and shrinking the count, per spec §4.3 step 2.
func (m *Mesh) cullDegenerateTriangles() {
	triCount := m.TriCount()
	write := 0
	for t := 0; t < triCount; t++ {
		i0, i1, i2 := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		if i0 == i1 || i1 == i2 || i0 == i2 {
			continue
		}
		if write != t {
			m.Indices[write*3] = i0
			m.Indices[write*3+1] = i1
			m.Indices[write*3+2] = i2
			if write < len(m.Material) && t < len(m.Material) {
				m.Material[write] = m.Material[t]
			}
			if write < len(m.Foreign) && t < len(m.Foreign) {
				m.Foreign[write] = m.Foreign[t]
			}
		}
		write++
	}
	m.Indices = m.Indices[:write*3]
	if len(m.Material) > write {
		m.Material = m.Material[:write]
	}
	if len(m.Foreign) > write {
		m.Foreign = m.Foreign[:write]
	}
}

func (m *Mesh) rebuildTreeLocked(opts BuildOptions) {
	tris := m.Triangles()
	tree, kind := bvh.Select(tris, opts.Params, opts.MinTrisForTree)
	m.Tree = tree
	m.TreeKind = kind
}

func (m *Mesh) recomputeNormals() {
	triCount := m.TriCount()
	m.Normals = make([]geom.Vec3, triCount)
	for t := 0; t < triCount; t++ {
		i0, i1, i2 := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		tri := geom.NewTriangle(m.Vertices[i0], m.Vertices[i1], m.Vertices[i2])
		m.Normals[t] = tri.Normal
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// unionFind is a small disjoint-set used only by mergeCoincidentVertices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
