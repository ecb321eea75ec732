package bvh

import (
	"testing"

	"collidecore/internal/geom"
)

func cubeTriangles() []geom.Triangle {
	// Unit cube centered at origin, 12 triangles (2 per face).
	v := [8]geom.Vec3{
		{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
	}
	idx := [36]int{
		0, 1, 2, 0, 2, 3, // -z
		4, 6, 5, 4, 7, 6, // +z
		0, 4, 5, 0, 5, 1, // -y
		3, 2, 6, 3, 6, 7, // +y
		0, 3, 7, 0, 7, 4, // -x
		1, 5, 6, 1, 6, 2, // +x
	}
	tris := make([]geom.Triangle, 0, 12)
	for i := 0; i < len(idx); i += 3 {
		tris = append(tris, geom.NewTriangle(v[idx[i]], v[idx[i+1]], v[idx[i+2]]))
	}
	return tris
}

func TestAABBTreeBuildUnitCube(t *testing.T) {
	tris := cubeTriangles()
	tree := BuildAABBTree(tris, DefaultBuildParams())

	if tree.NodeCount() == 0 {
		t.Fatal("expected a non-empty tree")
	}

	box := tree.NodeBV(Root)
	size := box.Size()
	if size.X < 0.99 || size.X > 1.01 || size.Y < 0.99 || size.Y > 1.01 || size.Z < 0.99 || size.Z > 1.01 {
		t.Errorf("expected root box ~= unit cube, got size %+v", size)
	}

	seen := map[int]bool{}
	var walk func(n NodeRef)
	walk = func(n NodeRef) {
		l, r := tree.Children(n)
		if l == NoNode {
			for _, ti := range tree.Contents(n) {
				seen[ti] = true
			}
			return
		}
		walk(l)
		walk(r)
	}
	walk(Root)
	if len(seen) != len(tris) {
		t.Errorf("expected all %d triangles reachable, got %d", len(tris), len(seen))
	}
}

func TestAABBTreeQuantizationRoundTrip(t *testing.T) {
	tris := cubeTriangles()
	tree := BuildAABBTree(tris, DefaultBuildParams())

	var walk func(n NodeRef)
	walk = func(n NodeRef) {
		exact := tree.NodeBV(n)
		quant := tree.QuantizedBV(n)
		const eps = 1e-3
		if quant.Min.X > exact.Min.X+eps || quant.Min.Y > exact.Min.Y+eps || quant.Min.Z > exact.Min.Z+eps {
			t.Errorf("node %d: quantized min %+v does not contain exact min %+v", n, quant.Min, exact.Min)
		}
		if quant.Max.X < exact.Max.X-eps || quant.Max.Y < exact.Max.Y-eps || quant.Max.Z < exact.Max.Z-eps {
			t.Errorf("node %d: quantized max %+v does not contain exact max %+v", n, quant.Max, exact.Max)
		}
		l, r := tree.Children(n)
		if l != NoNode {
			walk(l)
			walk(r)
		}
	}
	walk(Root)
}

func TestAABBTreeQueryRayHitsCube(t *testing.T) {
	tris := cubeTriangles()
	tree := BuildAABBTree(tris, DefaultBuildParams())

	r := geom.Ray{Origin: geom.Vec3{X: 0, Y: 0, Z: 10}, Direction: geom.Vec3{X: 0, Y: 0, Z: -1}}
	hits := tree.QueryRay(r, 100)
	if len(hits) == 0 {
		t.Error("expected ray toward cube center to hit at least one candidate triangle")
	}
}

func TestAABBTreeQueryBoxDisjoint(t *testing.T) {
	tris := cubeTriangles()
	tree := BuildAABBTree(tris, DefaultBuildParams())

	far := geom.NewBoxFromCenter(geom.Vec3{X: 100, Y: 100, Z: 100}, geom.Vec3{X: 1, Y: 1, Z: 1})
	hits := tree.QueryBox(far)
	if len(hits) != 0 {
		t.Errorf("expected no candidates for a disjoint box, got %d", len(hits))
	}
}
