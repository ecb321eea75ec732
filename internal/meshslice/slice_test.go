package meshslice

import (
	"testing"

	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

func unitCube() *mesh.Mesh {
	m := mesh.NewMesh()
	v := [8]geom.Vec3{
		{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
	}
	idx := []int32{
		0, 2, 1, 0, 3, 2,
		4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4,
		3, 7, 6, 3, 6, 2,
		0, 4, 7, 0, 7, 3,
		1, 2, 6, 1, 6, 5,
	}
	m.Vertices = v[:]
	m.Indices = idx
	m.Build(mesh.DefaultBuildOptions())
	return m
}

// cuttingTriangle returns a large triangle in the plane Z = z, bounding the
// cube's cross-section, per spec §8 scenario 5.
func cuttingTriangle(z float32) geom.Triangle {
	return geom.NewTriangle(
		geom.Vec3{X: -10, Y: -10, Z: z},
		geom.Vec3{X: 10, Y: -10, Z: z},
		geom.Vec3{X: 0, Y: 10, Z: z},
	)
}

func TestSliceUnitCubePreservesVolume(t *testing.T) {
	m := unitCube()
	before := m.Volume()
	Slice(m, cuttingTriangle(0.0), DefaultOptions())
	after := m.Volume()
	if absf(after-before) > 1e-3*absf(before) {
		t.Errorf("expected volume conservation under slice, before=%f after=%f", before, after)
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
