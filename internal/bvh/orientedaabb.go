package bvh

import (
	"collidecore/internal/geom"
	"collidecore/internal/scratch"
)

// OrientedAABBTree is the spec §4.3 "oriented-axis-aligned" candidate
// (trimesh.cpp:540-558's mesh_AABB_rotated): unlike OBBTree, which fits a
// fresh eigenbasis at every node, this candidate fits ONE global PCA
// eigenbasis over the whole mesh up front, re-expresses every triangle in
// that rotated frame, and then builds a plain world-axis AABBTree — the
// same scored split as AABBTree, just evaluated in a frame lined up with
// the mesh's principal axes instead of the arbitrary world X/Y/Z the
// caller handed it in.
type OrientedAABBTree struct {
	inner *AABBTree
	mean  geom.Vec3
	axes  [3]geom.Vec3
}

// BuildOrientedAABBTree fits the global eigenbasis (reusing OBBTree.fitOBB,
// called once over every triangle instead of per node) and builds the
// rotated AABBTree over it.
func BuildOrientedAABBTree(tris []geom.Triangle, params BuildParams) *OrientedAABBTree {
	axes := [3]geom.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
	var mean geom.Vec3
	if len(tris) > 0 {
		idx := make([]int, len(tris))
		for i := range idx {
			idx[i] = i
		}
		fitter := &OBBTree{tris: tris}
		box := fitter.fitOBB(idx)
		mean = box.Center
		axes = box.Axes
	}

	local := make([]geom.Triangle, len(tris))
	for i, tri := range tris {
		local[i] = geom.NewTriangle(
			projectLocal(tri.V0, mean, axes),
			projectLocal(tri.V1, mean, axes),
			projectLocal(tri.V2, mean, axes),
		)
	}
	return &OrientedAABBTree{inner: BuildAABBTree(local, params), mean: mean, axes: axes}
}

func projectLocal(v, mean geom.Vec3, axes [3]geom.Vec3) geom.Vec3 {
	rel := geom.Vec3{X: v.X - mean.X, Y: v.Y - mean.Y, Z: v.Z - mean.Z}
	return geom.Vec3{X: dot(rel, axes[0]), Y: dot(rel, axes[1]), Z: dot(rel, axes[2])}
}

func (t *OrientedAABBTree) worldPoint(local geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: t.mean.X + local.X*t.axes[0].X + local.Y*t.axes[1].X + local.Z*t.axes[2].X,
		Y: t.mean.Y + local.X*t.axes[0].Y + local.Y*t.axes[1].Y + local.Z*t.axes[2].Y,
		Z: t.mean.Z + local.X*t.axes[0].Z + local.Y*t.axes[1].Z + local.Z*t.axes[2].Z,
	}
}

func (t *OrientedAABBTree) NodeCount() int { return t.inner.NodeCount() }

// NodeBV returns the world-axis-aligned box enclosing the node's rotated
// local box, since the uniform Tree interface promises a world AABB even
// for oriented trees (OBBTree.NodeBV does the analogous thing via
// OBB.WorldBox).
func (t *OrientedAABBTree) NodeBV(n NodeRef) geom.Box {
	local := t.inner.NodeBV(n)
	out := geom.EmptyBox()
	for _, c := range boxCorners(local) {
		out = out.Grow(t.worldPoint(c))
	}
	return out
}

func (t *OrientedAABBTree) Children(n NodeRef) (NodeRef, NodeRef) { return t.inner.Children(n) }
func (t *OrientedAABBTree) Contents(n NodeRef) []int              { return t.inner.Contents(n) }

func (t *OrientedAABBTree) MarkUsed(scope *scratch.Scope, triIndex int) bool {
	return t.inner.MarkUsed(scope, triIndex)
}

func (t *OrientedAABBTree) Prepare() *scratch.Scope  { return t.inner.Prepare() }
func (t *OrientedAABBTree) Cleanup(s *scratch.Scope) { t.inner.Cleanup(s) }

// QueryBox rotates the query box's corners into the tree's local frame,
// takes their enclosing local box — a conservative but sound expansion,
// since an axis-aligned box rotated into another frame is no longer
// axis-aligned there — and delegates to the inner AABBTree.
func (t *OrientedAABBTree) QueryBox(box geom.Box) []int {
	local := geom.EmptyBox()
	for _, c := range boxCorners(box) {
		local = local.Grow(projectLocal(c, t.mean, t.axes))
	}
	return t.inner.QueryBox(local)
}

// QueryRay rotates the ray into local space — rotation preserves length,
// so maxDist carries over unchanged — and delegates.
func (t *OrientedAABBTree) QueryRay(r geom.Ray, maxDist float32) []int {
	localOrigin := projectLocal(r.Origin, t.mean, t.axes)
	localDir := geom.Vec3{X: dot(r.Direction, t.axes[0]), Y: dot(r.Direction, t.axes[1]), Z: dot(r.Direction, t.axes[2])}
	return t.inner.QueryRay(geom.Ray{Origin: localOrigin, Direction: localDir}, maxDist)
}

func boxCorners(b geom.Box) [8]geom.Vec3 {
	return [8]geom.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

var _ Tree = (*OrientedAABBTree)(nil)
