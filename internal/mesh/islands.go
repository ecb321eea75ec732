package mesh

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
	"collidecore/internal/intersect"
)

// Island is one connected component of the topology graph (spec §3
// "Islands", grounded in shape on gridgraph.ConnectedComponents' BFS
// flood-fill, generalized from grid cells to triangle adjacency).
type Island struct {
	Volume    float32
	Center    geom.Vec3
	FirstTri  int32
	TriCount  int32
	Parent    int32
	Child     int32
	Next      int32
	Processed bool

	Triangles []int32
}

// rebuildIslandsLocked flood-fills the topology graph into connected
// components, accumulating signed volume and centroid per spec §4.6, then
// resolves nesting via a vertical ray-cast from each island's topmost
// vertex.
func (m *Mesh) rebuildIslandsLocked() {
	triCount := m.TriCount()
	visited := make([]bool, triCount)
	var islands []*Island

	for start := 0; start < triCount; start++ {
		if visited[start] {
			continue
		}
		island := &Island{Parent: -1, Child: -1, Next: -1}
		queue := []int32{int32(start)}
		visited[start] = true

		var volume float32
		var centroid geom.Vec3
		var tris []int32

		for len(queue) > 0 {
			t := queue[0]
			queue = queue[1:]
			tris = append(tris, t)
			tri := m.TriangleAt(int(t))
			volume += tri.SignedVolume()
			centroid = rl.Vector3Add(centroid, tri.Centroid())

			for _, n := range m.Topo[t].Neighbor {
				if n >= 0 && !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}

		island.Volume = volume
		if len(tris) > 0 {
			island.Center = rl.Vector3Scale(centroid, 1.0/float32(len(tris)))
		}
		island.FirstTri = tris[0]
		island.TriCount = int32(len(tris))
		island.Triangles = tris
		islands = append(islands, island)
	}

	resolveIslandNesting(islands, m)
	m.Islands = islands
}

// resolveIslandNesting detects islands with negative volume (holes) and
// assigns their parent by casting a vertical ray from the island's topmost
// vertex and recording which other island's triangle it first hits, per
// spec §4.6.
func resolveIslandNesting(islands []*Island, m *Mesh) {
	triToIsland := make(map[int32]int, m.TriCount())
	for idx, isl := range islands {
		for _, t := range isl.Triangles {
			triToIsland[t] = idx
		}
	}

	for idx, isl := range islands {
		if isl.Volume >= 0 {
			continue
		}
		top := topmostVertex(m, isl.Triangles)
		ray := geom.Ray{
			Origin:    rl.Vector3Add(top, geom.Vec3{Y: 1e4}),
			Direction: geom.Vec3{Y: -1},
		}
		hitTri, ok := castRayAgainstMesh(m, ray, isl.Triangles)
		if !ok {
			continue
		}
		if parentIdx, ok := triToIsland[hitTri]; ok && parentIdx != idx {
			isl.Parent = int32(parentIdx)
		}
	}
}

func topmostVertex(m *Mesh, tris []int32) geom.Vec3 {
	best := geom.Vec3{Y: -1e30}
	for _, t := range tris {
		tri := m.TriangleAt(int(t))
		for _, v := range [3]geom.Vec3{tri.V0, tri.V1, tri.V2} {
			if v.Y > best.Y {
				best = v
			}
		}
	}
	return best
}

// castRayAgainstMesh finds the nearest triangle (outside excludeSelf) the
// ray hits, via the shared intersector catalog rather than a private
// ray/triangle routine.
func castRayAgainstMesh(m *Mesh, r geom.Ray, excludeSelf []int32) (int32, bool) {
	exclude := make(map[int32]bool, len(excludeSelf))
	for _, t := range excludeSelf {
		exclude[t] = true
	}
	best := float32(1e30)
	var bestTri int32 = -1
	for t := 0; t < m.TriCount(); t++ {
		if exclude[int32(t)] {
			continue
		}
		tri := m.TriangleAt(t)
		if dist, ok := intersect.DefaultCatalog.IntersectRayTriangle(r, tri, best); ok {
			best = dist
			bestTri = int32(t)
		}
	}
	return bestTri, bestTri >= 0
}
