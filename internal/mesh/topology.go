package mesh

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// edgeKey identifies an undirected edge by its two canonical vertex
// indices, ordered low,high so both windings of the same edge hash alike.
type edgeKey struct {
	a, b int32
}

func makeEdgeKey(a, b int32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// rebuildTopologyLocked infers each triangle's three signed neighbor
// indices (spec §4.4). For a 2-manifold edge, the neighbor is simply the
// other incident triangle. Non-manifold edges (more than 2 incident
// triangles) pick, among candidates presenting the reverse-oriented edge,
// the one with the smallest dihedral angle against the current triangle.
func (m *Mesh) rebuildTopologyLocked() {
	triCount := m.TriCount()
	m.Topo = make([]Topology, triCount)
	for i := range m.Topo {
		m.Topo[i] = Topology{Neighbor: [3]int32{-1, -1, -1}}
	}

	// incident[edgeKey] -> list of (triangle, edgeIndex); the edge runs
	// from vtxAt(tri, edge) to the triangle's next corner.
	type incidence struct {
		tri  int32
		edge int32
	}
	incident := make(map[edgeKey][]incidence, triCount*3/2)

	vtxAt := func(t, e int32) int32 {
		return m.Canonical(m.Indices[t*3+e])
	}

	for t := int32(0); t < int32(triCount); t++ {
		for e := int32(0); e < 3; e++ {
			a := vtxAt(t, e)
			b := vtxAt(t, (e+1)%3)
			key := makeEdgeKey(a, b)
			incident[key] = append(incident[key], incidence{tri: t, edge: e})
		}
	}

	for t := int32(0); t < int32(triCount); t++ {
		for e := int32(0); e < 3; e++ {
			a := vtxAt(t, e)
			b := vtxAt(t, (e+1)%3)
			key := makeEdgeKey(a, b)
			candidates := incident[key]

			var others []incidence
			for _, c := range candidates {
				if c.tri != t {
					others = append(others, c)
				}
			}

			switch len(others) {
			case 0:
				m.NErrors++ // boundary edge
			case 1:
				m.Topo[t].Neighbor[e] = others[0].tri
			default:
				m.NErrors++ // non-manifold edge
				best := int32(-1)
				var bestAngle float32
				for _, c := range others {
					if vtxAt(c.tri, c.edge) != b {
						continue // not the reverse-oriented edge b->a
					}
					angle := m.dihedralAngleSq(t, c.tri)
					if best < 0 || angle < bestAngle {
						bestAngle = angle
						best = c.tri
					}
				}
				m.Topo[t].Neighbor[e] = best
			}
		}
	}
}

// dihedralAngleSq scores how sharply two triangles fold along their shared
// edge, via the squared magnitude of the cross product of their normals —
// smaller means more coplanar, which spec §4.4 prefers as the tie-break.
func (m *Mesh) dihedralAngleSq(a, b int32) float32 {
	na := m.Normals[a]
	nb := m.Normals[b]
	cross := rl.Vector3CrossProduct(na, nb)
	return rl.Vector3DotProduct(cross, cross)
}

// EdgeByBuddy returns the edge index on triangle u that corresponds to the
// buddy link from t, satisfying the spec §3 topology invariant: if
// buddy(t,e) = u then edge e of t shares endpoints (reversed) with
// edge_by_buddy(u,t) of u.
func (m *Mesh) EdgeByBuddy(u, t int32) int32 {
	for e := int32(0); e < 3; e++ {
		if m.Topo[u].Neighbor[e] == t {
			return e
		}
	}
	return -1
}
