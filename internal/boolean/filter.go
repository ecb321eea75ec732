package boolean

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/mesh"
)

// FilterMesh implements part of spec §4.10: it drops zero-thickness fins
// and records needle-angle T-junctions in rec.TJFixes without changing
// them. It does not weld vertices; Subtract welds new vertices into
// existing ones within MinVtxDist as it inserts them (see
// findOrInsertVertex).
func FilterMesh(m *mesh.Mesh, rec *mesh.UpdateRecord) {
	removeFins(m, rec)
	fixNeedleTriangles(m, rec)
}

// removeFins drops pairs of triangles that share two edges — a
// zero-thickness sliver the clip/retriangulate step can produce when a cut
// passes exactly along an existing edge.
func removeFins(m *mesh.Mesh, rec *mesh.UpdateRecord) {
	triCount := m.TriCount()
	remove := make(map[int]bool)
	for a := 0; a < triCount; a++ {
		if remove[a] {
			continue
		}
		for b := a + 1; b < triCount; b++ {
			if remove[b] {
				continue
			}
			if sharedEdgeCount(m, a, b) >= 2 {
				remove[a] = true
				remove[b] = true
				rec.RemovedTri = append(rec.RemovedTri, int32(a), int32(b))
				break
			}
		}
	}
	if len(remove) == 0 {
		return
	}
	newIdx := make([]int32, 0, len(m.Indices))
	for t := 0; t < triCount; t++ {
		if remove[t] {
			continue
		}
		newIdx = append(newIdx, m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2])
	}
	m.Indices = newIdx
}

func sharedEdgeCount(m *mesh.Mesh, a, b int) int {
	ea := triEdgeSet(m, a)
	eb := triEdgeSet(m, b)
	count := 0
	for _, e := range ea {
		for _, f := range eb {
			if (e[0] == f[0] && e[1] == f[1]) || (e[0] == f[1] && e[1] == f[0]) {
				count++
			}
		}
	}
	return count
}

func triEdgeSet(m *mesh.Mesh, t int) [3][2]int32 {
	i0, i1, i2 := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
	return [3][2]int32{{i0, i1}, {i1, i2}, {i2, i0}}
}

// fixNeedleTriangles appends to rec.TJFixes every pair of neighbouring
// triangles (t, u) where t's angle at the first corner of the shared edge
// is a needle (sin^2 below 0.02). It only records the pairs: no diagonal is
// swapped and the mesh's indices are left unchanged.
func fixNeedleTriangles(m *mesh.Mesh, rec *mesh.UpdateRecord) {
	const needleSin2 = 0.02
	triCount := m.TriCount()
	for t := 0; t < triCount && t < len(m.Topo); t++ {
		for e := 0; e < 3; e++ {
			u := m.Topo[t].Neighbor[e]
			if u < 0 || int(u) <= t {
				continue
			}
			if !isNeedle(m, t, e, needleSin2) {
				continue
			}
			rec.TJFixes = append(rec.TJFixes, mesh.TJunctionFix{TriA: int32(t), TriB: u})
		}
	}
}

func isNeedle(m *mesh.Mesh, t, e int, thresholdSin2 float32) bool {
	i0 := m.Indices[t*3+e]
	i1 := m.Indices[t*3+(e+1)%3]
	i2 := m.Indices[t*3+(e+2)%3]
	v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]
	edgeA := rl.Vector3Subtract(v1, v0)
	edgeB := rl.Vector3Subtract(v2, v0)
	crossLen := rl.Vector3Length(rl.Vector3CrossProduct(edgeA, edgeB))
	lenProduct := rl.Vector3Length(edgeA) * rl.Vector3Length(edgeB)
	if lenProduct < 1e-12 {
		return true
	}
	sinApex := crossLen / lenProduct
	return sinApex*sinApex < thresholdSin2
}
