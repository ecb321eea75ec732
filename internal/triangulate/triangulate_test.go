package triangulate

import (
	"testing"

	"collidecore/internal/geom"
)

func square(z float32) []geom.Vec3 {
	return []geom.Vec3{
		{X: -1, Y: -1, Z: z}, {X: 1, Y: -1, Z: z}, {X: 1, Y: 1, Z: z}, {X: -1, Y: 1, Z: z},
	}
}

func TestTriangulateSquareAreaLaw(t *testing.T) {
	p := Polygon{
		Outer: Contour{Points: square(0)},
		Plane: geom.Plane{Point: geom.Vec3{}, Normal: geom.Vec3{Z: 1}},
	}
	res, err := Triangulate(p)
	if err != nil {
		t.Fatalf("triangulate: %v", err)
	}
	if len(res.Triangles) != 2 {
		t.Fatalf("expected 2 triangles for a convex quad, got %d", len(res.Triangles))
	}
}

func TestTriangulateWithHole(t *testing.T) {
	hole := []geom.Vec3{
		{X: -0.3, Y: -0.3, Z: 0}, {X: -0.3, Y: 0.3, Z: 0}, {X: 0.3, Y: 0.3, Z: 0}, {X: 0.3, Y: -0.3, Z: 0},
	}
	p := Polygon{
		Outer: Contour{Points: square(0)},
		Holes: []Contour{{Points: hole}},
		Plane: geom.Plane{Point: geom.Vec3{}, Normal: geom.Vec3{Z: 1}},
	}
	res, err := Triangulate(p)
	if err != nil {
		t.Fatalf("triangulate: %v", err)
	}
	if len(res.Triangles) == 0 {
		t.Fatal("expected triangles for outer-minus-hole polygon")
	}
}

func TestTriangulateDegenerateRejected(t *testing.T) {
	p := Polygon{
		Outer: Contour{Points: []geom.Vec3{{X: 0}, {X: 1}}},
		Plane: geom.Plane{Normal: geom.Vec3{Z: 1}},
	}
	if _, err := Triangulate(p); err == nil {
		t.Error("expected error for a 2-point contour")
	}
}
