// Package mesh implements the spec's triangle mesh (§2 component 6, §3
// data model): vertex/index buffers, per-triangle normals, topology,
// islands, a planar hash grid, and the CSG edit-log chain, all built atop
// the internal/bvh trees.
package mesh

import (
	"sync"

	"collidecore/internal/bvh"
	"collidecore/internal/geom"
)

// Flags is the spec §6 "vocabulary flags on mesh" bitmask.
type Flags uint32

const (
	FlagSharedVtx Flags = 1 << iota
	FlagSharedIdx
	FlagSharedMats
	FlagSharedForeignIdx
	FlagKeepVtxMap
	FlagFullSerialization
	FlagAABB
	FlagOBB
	FlagAABBRotated
	FlagAABBPlaneOptimize
	FlagSingleBB
	FlagVoxelGrid
	FlagNoFilter
	FlagNoVtxMerge
	FlagAlwaysStatic
	FlagMultiContact0
	FlagMultiContact2
	FlagNoBooleans
	FlagShouldDie
)

// Topology holds, per triangle, the three signed neighbor indices described
// in spec §3/§4.4. Neighbor[e] is -1 at a boundary.
type Topology struct {
	Neighbor [3]int32
}

// Mesh is the spec's triangle mesh: vertex/index buffers, topology,
// optional material/foreign-id arrays, an optional vertex map, a BV-tree,
// islands, a lazily-built hash grid, and a CSG edit-log chain.
type Mesh struct {
	Vertices []geom.Vec3
	Indices  []int32 // triCount*3
	Normals  []geom.Vec3
	Material []int32 // optional, parallel to triangles
	Foreign  []int32 // optional, stable per-triangle foreign ids

	VtxMap []int32 // optional canonical-id remap, vtx_map[i] -> canonical

	IVtx0 int // logical vertex-range offset after load-time compaction

	Topo []Topology

	Tree     bvh.Tree
	TreeKind bvh.Kind

	Islands []*Island

	Flags Flags

	convexity convexityCache

	hashGrid     *HashGrid
	hashGridOnce sync.Once

	EditLog *UpdateRecord // head of the mesh_update linked list (newest first)

	lockUpdate sync.RWMutex // guards mesh contents (spec §5)
	lockHash   sync.RWMutex // guards the planar hash grid

	LastNewTriIdx int32 // monotonic counter seeding "new" foreign ids (spec §3)

	NErrors int // non-manifold / boundary edge counter (spec §4.4)

	MinVtxDist float32 // welding tolerance, 0.0002 * max bbox extent (spec §4.3 step 8)
}

// NewMesh builds an empty mesh shell; callers populate Vertices/Indices and
// call Build.
func NewMesh() *Mesh {
	return &Mesh{}
}

// TriCount returns the number of triangles.
func (m *Mesh) TriCount() int {
	return len(m.Indices) / 3
}

// TriangleAt returns triangle i as a geom.Triangle with its cached normal.
func (m *Mesh) TriangleAt(i int) geom.Triangle {
	i0 := m.Indices[i*3+0]
	i1 := m.Indices[i*3+1]
	i2 := m.Indices[i*3+2]
	t := geom.Triangle{V0: m.Vertices[i0], V1: m.Vertices[i1], V2: m.Vertices[i2]}
	if i < len(m.Normals) {
		t.Normal = m.Normals[i]
	} else {
		t.Normal = geom.NewTriangle(t.V0, t.V1, t.V2).Normal
	}
	return t
}

// Triangles materializes every triangle — used by tree (re)builds.
func (m *Mesh) Triangles() []geom.Triangle {
	out := make([]geom.Triangle, m.TriCount())
	for i := range out {
		out[i] = m.TriangleAt(i)
	}
	return out
}

// Canonical resolves a vertex index through VtxMap, or returns it unchanged
// if no map is present. Satisfies the spec §8 "vertex-map idempotence"
// property: Canonical(Canonical(i)) == Canonical(i).
func (m *Mesh) Canonical(i int32) int32 {
	if m.VtxMap == nil {
		return i
	}
	return m.VtxMap[i]
}

// Bounds returns the axis-aligned box over every vertex.
func (m *Mesh) Bounds() geom.Box {
	b := geom.EmptyBox()
	for _, v := range m.Vertices {
		b = b.Grow(v)
	}
	return b
}

// Volume sums every triangle's signed tetrahedral volume (spec §4.6).
func (m *Mesh) Volume() float32 {
	var v float32
	for i := 0; i < m.TriCount(); i++ {
		v += m.TriangleAt(i).SignedVolume()
	}
	return v
}

// LockForQuery acquires the read locks a query needs (spec §5: "Queries
// hold lock_update shared and lock_hash shared").
func (m *Mesh) LockForQuery() func() {
	m.lockUpdate.RLock()
	m.lockHash.RLock()
	return func() {
		m.lockHash.RUnlock()
		m.lockUpdate.RUnlock()
	}
}

// LockForMutation acquires the write locks a mutating operation needs
// (spec §5: "Mutations hold both exclusively").
func (m *Mesh) LockForMutation() func() {
	m.lockUpdate.Lock()
	m.lockHash.Lock()
	return func() {
		m.lockHash.Unlock()
		m.lockUpdate.Unlock()
	}
}

// InvalidateHashGrid forces the next ray query to rebuild the planar hash
// grid, used after any mutation (spec §4.7 "built lazily on first ray
// query").
func (m *Mesh) InvalidateHashGrid() {
	m.hashGrid = nil
	m.hashGridOnce = sync.Once{}
}

// NextForeignID draws the next monotonically increasing "new" foreign id,
// starting at BOPNewIdx0 so new ids never collide with original ones
// (spec §3 "Material id / foreign id").
const BOPNewIdx0 = 1 << 20

func (m *Mesh) NextForeignID() int32 {
	if m.LastNewTriIdx == 0 {
		m.LastNewTriIdx = BOPNewIdx0
	}
	id := m.LastNewTriIdx
	m.LastNewTriIdx++
	return id
}
