package floodfill

import (
	"testing"

	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

func unitCubeMesh() *mesh.Mesh {
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

func TestFloodFillHalfCubeVolume(t *testing.T) {
	m := unitCubeMesh()
	res, ok := FloodFill(m, geom.Vec3{}, geom.Vec3{Y: -1}, 0.5, nil, DefaultOptions())
	if !ok {
		t.Fatal("expected floodfill to converge")
	}
	if absf(res.Volume-0.5) > 0.01 {
		t.Errorf("expected submerged volume ~0.5, got %f", res.Volume)
	}
}

func TestFloodFillFullVolume(t *testing.T) {
	m := unitCubeMesh()
	res, ok := FloodFill(m, geom.Vec3{}, geom.Vec3{Y: -1}, 2.0, nil, DefaultOptions())
	if !ok {
		t.Fatal("expected floodfill to converge")
	}
	if absf(res.Volume-1.0) > 0.01 {
		t.Errorf("expected full submersion to cap at mesh volume ~1.0, got %f", res.Volume)
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
