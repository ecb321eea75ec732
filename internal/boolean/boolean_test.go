package boolean

import (
	"testing"

	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

func cubeMesh(center geom.Vec3, half float32) *mesh.Mesh {
	m := mesh.NewMesh()
	c := center
	h := half
	v := [8]geom.Vec3{
		{X: c.X - h, Y: c.Y - h, Z: c.Z - h}, {X: c.X + h, Y: c.Y - h, Z: c.Z - h},
		{X: c.X + h, Y: c.Y + h, Z: c.Z - h}, {X: c.X - h, Y: c.Y + h, Z: c.Z - h},
		{X: c.X - h, Y: c.Y - h, Z: c.Z + h}, {X: c.X + h, Y: c.Y - h, Z: c.Z + h},
		{X: c.X + h, Y: c.Y + h, Z: c.Z + h}, {X: c.X - h, Y: c.Y + h, Z: c.Z + h},
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

func TestSubtractDisjointCubesRollsBack(t *testing.T) {
	// B ⊂ A is the only case spec §8's boolean-bounds invariant covers; for
	// disjoint meshes no volume is removed, so the bounds check never
	// passes and the operation must roll back to an unchanged A.
	a := cubeMesh(geom.Vec3{}, 1)
	b := cubeMesh(geom.Vec3{X: 10}, 1)
	vBefore := a.Volume()
	ok := Subtract(a, b, DefaultOptions())
	if ok {
		t.Fatal("expected subtract of disjoint meshes to fail the bounds check")
	}
	if absf(a.Volume()-vBefore) > 1e-4 {
		t.Errorf("expected A unchanged after a rolled-back subtract, before=%f after=%f", vBefore, a.Volume())
	}
}

func TestSubtractSmallCubeFromBigCube(t *testing.T) {
	a := cubeMesh(geom.Vec3{}, 2)
	b := cubeMesh(geom.Vec3{}, 0.5)
	vA := a.Volume()
	vB := b.Volume()

	ok := Subtract(a, b, DefaultOptions())
	if !ok {
		t.Fatal("expected subtract to succeed")
	}
	newVol := a.Volume()
	lo := vA - 1.1*vB
	hi := vA - 0.1*vB
	if newVol < lo || newVol > hi {
		t.Errorf("expected new volume in [%f,%f], got %f", lo, hi, newVol)
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
