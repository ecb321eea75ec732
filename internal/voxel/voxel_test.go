package voxel

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

func TestVoxelizeUnitCubeHasInterior(t *testing.T) {
	m := unitCubeMesh()
	grid := Voxelize(m, geom.IdentityPose(), 0.25)
	if !grid.At(grid.Dim, grid.Dim, grid.Dim) {
		t.Error("expected the cube's center cell to be occupied or filled")
	}
}

func TestBoxifyUnitCubeProducesBoxes(t *testing.T) {
	m := unitCubeMesh()
	boxes := Boxify(m, DefaultBoxifyOptions())
	if len(boxes) == 0 {
		t.Error("expected at least one box for a closed convex mesh")
	}
}
