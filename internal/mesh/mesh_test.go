package mesh

import (
	"bytes"
	"testing"

	"collidecore/internal/geom"
)

func unitCubeMesh() *Mesh {
	m := NewMesh()
	v := [8]geom.Vec3{
		{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
	}
	idx := []int32{
		0, 2, 1, 0, 3, 2, // -z (outward normal -z given winding)
		4, 5, 6, 4, 6, 7, // +z
		0, 1, 5, 0, 5, 4, // -y
		3, 7, 6, 3, 6, 2, // +y
		0, 4, 7, 0, 7, 3, // -x
		1, 2, 6, 1, 6, 5, // +x
	}
	m.Vertices = v[:]
	m.Indices = idx
	m.Build(DefaultBuildOptions())
	return m
}

func TestMeshBuildUnitCubeIsland(t *testing.T) {
	m := unitCubeMesh()
	if len(m.Islands) != 1 {
		t.Errorf("expected 1 island, got %d", len(m.Islands))
	}
}

func TestMeshTopologyRoundTrip(t *testing.T) {
	m := unitCubeMesh()
	for t32 := 0; t32 < m.TriCount(); t32++ {
		for e := 0; e < 3; e++ {
			u := m.Topo[t32].Neighbor[e]
			if u < 0 {
				continue
			}
			ue := m.EdgeByBuddy(u, int32(t32))
			if ue < 0 {
				t.Fatalf("triangle %d edge %d: buddy %d has no return edge", t32, e, u)
			}
			a0 := m.Indices[t32*3+e]
			a1 := m.Indices[t32*3+(e+1)%3]
			b0 := m.Indices[u*3+ue]
			b1 := m.Indices[u*3+(ue+1)%3]
			if !(a0 == b1 && a1 == b0) {
				t.Errorf("edge endpoints mismatch: tri %d edge %d (%d,%d) vs buddy %d edge %d (%d,%d)",
					t32, e, a0, a1, u, ue, b0, b1)
			}
		}
	}
}

func TestMeshVertexMapIdempotent(t *testing.T) {
	m := NewMesh()
	m.Flags |= FlagKeepVtxMap
	m.Vertices = []geom.Vec3{{X: 0}, {X: 0}, {X: 1}}
	m.Indices = []int32{0, 1, 2}
	m.Build(DefaultBuildOptions())

	for i := range m.VtxMap {
		c := m.Canonical(int32(i))
		if m.Canonical(c) != c {
			t.Errorf("vtx_map not idempotent at %d: map[map[%d]]=%d != map[%d]=%d", i, i, m.Canonical(c), i, c)
		}
	}
}

func TestMeshVolumeUnitCube(t *testing.T) {
	m := unitCubeMesh()
	vol := m.Volume()
	if vol < 0.95 || vol > 1.05 {
		t.Errorf("expected unit cube volume ~1.0, got %f", vol)
	}
}

func TestMeshIsConvex(t *testing.T) {
	m := unitCubeMesh()
	if !m.IsConvex(0.02) {
		t.Error("expected unit cube to be convex")
	}
}

func TestMeshSaveLoadIdempotent(t *testing.T) {
	m := unitCubeMesh()

	var buf1 bytes.Buffer
	if err := m.Save(&buf1); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(bytes.NewReader(buf1.Bytes()), DefaultBuildOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var buf2 bytes.Buffer
	if err := loaded.Save(&buf2); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	if !bytes.Equal(buf1.Bytes(), buf2.Bytes()) {
		t.Error("save -> load -> save produced different bytes")
	}
}
