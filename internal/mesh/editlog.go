package mesh

import "collidecore/internal/geom"

// NewVertexRecord describes one vertex inserted by a mutating operation
// (spec §3 "Edit log").
type NewVertexRecord struct {
	Idx          int32
	SourceBVtx   int32
	SourceTriA   int32
	SourceTriB   int32
}

// NewTriangleRecord describes one triangle inserted by a mutating
// operation, carrying its barycentric provenance for downstream consumers
// (renderer texcoord interpolation, foreign-id propagation).
type NewTriangleRecord struct {
	IdxNew       int32
	IdxOrg       int32
	Iop          int32 // 0 = from A, 1 = from B
	BaryArea     [3][3]float32
	AreaOrg      float32
	VertexRefs   [3]int32
}

// WeldedVertex records a vertex that collapsed into another during mesh
// filtering (spec §4.10).
type WeldedVertex struct {
	From, Into int32
}

// TJunctionFix records a pair of neighbouring triangles that mesh filtering
// found to form a needle-angle T-junction (spec §4.10). The pair is only
// recorded; its triangles are left as they are.
type TJunctionFix struct {
	TriA, TriB int32
}

// UpdateRecord is one node of the spec's mesh_update singly-linked list: a
// record of everything one mutating operation changed. MeshB is nil for
// operations (slice, filter) that only involve one mesh.
type UpdateRecord struct {
	MeshA, MeshB *Mesh
	RefCount     int

	RemovedVtx []int32 // by foreign id
	RemovedTri []int32

	NewVtx []NewVertexRecord
	NewTri []NewTriangleRecord

	WeldedVtx []WeldedVertex
	TJFixes   []TJunctionFix
	MovedBoxes []geom.Box

	Next *UpdateRecord // older records

	bNext *UpdateRecord // secondary list threaded through MeshB (spec §3)
}

// PushUpdate prepends a new record to the mesh's edit-log chain, and threads
// it onto MeshB's secondary list when a second mesh is involved, so both
// sides can invalidate in sync (spec §3 "Edit log").
func (m *Mesh) PushUpdate(rec *UpdateRecord) {
	rec.MeshA = m
	rec.Next = m.EditLog
	m.EditLog = rec
	if rec.MeshB != nil {
		rec.bNext = rec.MeshB.EditLog
		rec.MeshB.EditLog = rec
		rec.RefCount++
	}
	rec.RefCount++
}

// ConsumeUpdates drains and returns every record on this mesh's chain,
// decrementing reference counts and freeing a record once neither side
// still references it (spec §3 "consumed by external observers... and then
// freed").
func (m *Mesh) ConsumeUpdates() []*UpdateRecord {
	var out []*UpdateRecord
	for rec := m.EditLog; rec != nil; {
		out = append(out, rec)
		rec.RefCount--
		if rec.MeshA != m && rec.MeshB == m {
			rec = rec.bNext // m reached this record through MeshB's list
		} else {
			rec = rec.Next
		}
	}
	m.EditLog = nil
	return out
}
