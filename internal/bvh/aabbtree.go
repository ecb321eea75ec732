package bvh

import (
	"collidecore/internal/geom"
	"collidecore/internal/scratch"
)

// aabbNode is one entry of the AABB tree's node array. Bounds is kept as an
// exact float box for traversal precision; Quant holds a 7-bit-per-axis
// encoding of the same box, quantized relative to the tree's root box (not
// to the parent node's box), recoverable losslessly enough
// to satisfy the quantization round-trip property (§8) without forcing
// every query to dequantize on the hot path.
type aabbNode struct {
	Bounds             geom.Box
	Quant              [6]uint8
	Left, Right        NodeRef
	TriStart, TriCount int32
	SingleCollision    bool
}

// triBounds caches a triangle's min/max corners and centroid so the scored
// split (aabbtree.cpp:222-278) doesn't recompute them once per candidate
// axis per node.
type triBounds struct {
	Min, Max, Centroid geom.Vec3
}

// AABBTree is the spec §4.1 AABB-tree BVH.
type AABBTree struct {
	nodes       []aabbNode
	triIdx      []int // permuted triangle indices, leaves reference a contiguous run
	tris        []geom.Triangle
	triBounds   []triBounds
	params      BuildParams
	rootBox     geom.Box
	blockedAxis int32 // -1 = unrestricted; else the plane-optimised-away axis
}

// BuildAABBTree constructs an AABB tree over tris using the ground-truth
// three-axis/three-mode scored split (aabbtree.cpp:211-278: for each
// candidate axis, score partitioning by triangle min, by triangle max, and
// by centroid, penalizing modes that would leave either side below
// MinTrisPerNode, then keep the axis/mode whose score — weighted by the
// node's other two extents — is largest), with the spec's leaf/skip-dim/
// quantization rules layered on top.
func BuildAABBTree(tris []geom.Triangle, params BuildParams) *AABBTree {
	t := &AABBTree{tris: tris, params: params}
	if len(tris) == 0 {
		return t
	}
	idx := make([]int, len(tris))
	t.triBounds = make([]triBounds, len(tris))
	for i, tri := range tris {
		idx[i] = i
		t.triBounds[i] = triBounds{
			Min:      geom.Vec3{X: minOf3(tri.V0.X, tri.V1.X, tri.V2.X), Y: minOf3(tri.V0.Y, tri.V1.Y, tri.V2.Y), Z: minOf3(tri.V0.Z, tri.V1.Z, tri.V2.Z)},
			Max:      geom.Vec3{X: maxOf3(tri.V0.X, tri.V1.X, tri.V2.X), Y: maxOf3(tri.V0.Y, tri.V1.Y, tri.V2.Y), Z: maxOf3(tri.V0.Z, tri.V1.Z, tri.V2.Z)},
			Centroid: tri.Centroid(),
		}
	}
	t.triIdx = idx
	root := t.computeBounds(idx)
	t.rootBox = root
	t.blockedAxis = choosePlaneAxis(params.PlaneOptimize, root)
	t.buildNode(idx, 0, root, 0)
	return t
}

// choosePlaneAxis implements aabbtree.cpp:85-96's plane-optimisation
// sentinel: when the root box's thinnest extent is more than 10x smaller
// than both others, that axis is blocked from ever being chosen as a split
// axis for the whole tree (it would only ever slice the mesh the wrong
// way). Returns -1 (unrestricted) otherwise, or when the caller didn't ask
// for plane optimisation at all.
func choosePlaneAxis(enabled bool, root geom.Box) int32 {
	if !enabled {
		return -1
	}
	size := root.HalfSize()
	arr := [3]float32{size.X, size.Y, size.Z}
	min := argmin3(arr)
	i0, i1 := otherTwo(min)
	if 10*arr[min] < arr[i0] && 10*arr[min] < arr[i1] {
		return int32(min)
	}
	return -1
}

func minOf3(a, b, c float32) float32 { return minf32(minf32(a, b), c) }
func maxOf3(a, b, c float32) float32 { return maxf32(maxf32(a, b), c) }

func (t *AABBTree) computeBounds(idx []int) geom.Box {
	b := geom.EmptyBox()
	for _, i := range idx {
		tri := t.tris[i]
		b = b.Grow(tri.V0)
		b = b.Grow(tri.V1)
		b = b.Grow(tri.V2)
	}
	return b
}

// buildNode appends node(s) to t.nodes and returns the new node's ref.
// base is idx's start offset within the shared t.triIdx backing array, so
// leaves can record (start,count) instead of copying their slice.
func (t *AABBTree) buildNode(idx []int, base int, bounds geom.Box, depth int) NodeRef {
	ref := NodeRef(len(t.nodes))
	n := aabbNode{Bounds: bounds}
	n.Quant = quantizeExtents(t.rootBox, bounds)
	skip := maxf3(t.rootBox.Size()) * t.params.SkipDim
	n.SingleCollision = maxf3(bounds.Size()) <= skip
	t.nodes = append(t.nodes, n)

	if len(idx) <= t.params.MaxTrisPerNode || depth >= t.params.MaxDepth-2 {
		t.nodes[ref].TriStart = int32(base)
		t.nodes[ref].TriCount = int32(len(idx))
		return ref
	}

	axis, mode, ok := t.chooseSplit(idx, bounds)
	if !ok {
		t.nodes[ref].TriStart = int32(base)
		t.nodes[ref].TriCount = int32(len(idx))
		return ref
	}
	mid := t.partitionScored(idx, axis, mode, bounds.Center())
	if mid < t.params.MinTrisPerNode || mid > len(idx)-t.params.MinTrisPerNode {
		t.nodes[ref].TriStart = int32(base)
		t.nodes[ref].TriCount = int32(len(idx))
		return ref
	}

	leftBox := t.computeBounds(idx[:mid])
	rightBox := t.computeBounds(idx[mid:])

	left := t.buildNode(idx[:mid], base, leftBox, depth+1)
	right := t.buildNode(idx[mid:], base+mid, rightBox, depth+1)
	t.nodes[ref].Left = left
	t.nodes[ref].Right = right
	return ref
}

// chooseSplit scores all three axes (skipping ones blocked by plane
// optimisation, or too thin relative to the node, per aabbtree.cpp:222-228)
// and returns the axis/mode whose gap score, weighted by the node's other
// two extents, is largest (aabbtree.cpp:276-280). ok is false when every
// axis was blocked or degenerate, meaning the node must stay a leaf.
func (t *AABBTree) chooseSplit(idx []int, bounds geom.Box) (axis, mode int, ok bool) {
	size := bounds.HalfSize()
	center := bounds.Center()
	mindim := maxf3(size) * 0.001

	allowedAxis := -1
	if t.blockedAxis >= 0 {
		i0, i1 := otherTwo(int(t.blockedAxis))
		if geom.AxisValue(size, i0) > geom.AxisValue(size, i1) {
			allowedAxis = i0
		} else {
			allowedAxis = i1
		}
	}

	var axdiff [3]float32
	var modeForAxis [3]int
	for a := 0; a < 3; a++ {
		axdiff[a] = -1e10
		sz := geom.AxisValue(size, a)
		if sz < mindim || (allowedAxis >= 0 && a != allowedAxis) {
			continue
		}
		cx := geom.AxisValue(center, a)
		aa := a // capture for closures
		mode, diff := scoreAxisSplit(len(idx),
			func(i int) float32 { return geom.AxisValue(t.triBounds[idx[i]].Min, aa) - cx },
			func(i int) float32 { return geom.AxisValue(t.triBounds[idx[i]].Max, aa) - cx },
			func(i int) float32 { return geom.AxisValue(t.triBounds[idx[i]].Centroid, aa) - cx },
			sz, t.params.MinTrisPerNode, 8)
		i0, i1 := otherTwo(a)
		axdiff[a] = diff * geom.AxisValue(size, i0) * geom.AxisValue(size, i1)
		modeForAxis[a] = mode
	}

	axis = argmax3(axdiff)
	if axdiff[axis] <= -1e9 {
		return 0, 0, false
	}
	return axis, modeForAxis[axis], true
}

// partitionScored reorders idx in place so the first returned-count entries
// land on the side chosen by (axis, mode), mirroring the in-place swap loop
// aabbtree.cpp:286-339 runs once iAxis/iMode are fixed.
func (t *AABBTree) partitionScored(idx []int, axis, mode int, center geom.Vec3) int {
	part := partitionMode(mode)
	cx := geom.AxisValue(center, axis)
	j := 0
	for i := 0; i < len(idx); i++ {
		v := t.partitionValue(idx[i], part, axis) - cx
		if v < 0 {
			idx[i], idx[j] = idx[j], idx[i]
			j++
		}
	}
	return j
}

func (t *AABBTree) partitionValue(triIdx, part, axis int) float32 {
	b := t.triBounds[triIdx]
	switch part {
	case 0:
		return geom.AxisValue(b.Min, axis)
	case 1:
		return geom.AxisValue(b.Max, axis)
	default:
		return geom.AxisValue(b.Centroid, axis)
	}
}

func maxf3(v geom.Vec3) float32 {
	m := v.X
	if v.Y > m {
		m = v.Y
	}
	if v.Z > m {
		m = v.Z
	}
	return m
}

func (t *AABBTree) NodeCount() int { return len(t.nodes) }

func (t *AABBTree) NodeBV(n NodeRef) geom.Box {
	return t.nodes[n].Bounds
}

// QuantizedBV decodes a node's stored 7-bit extents back into a box
// relative to the tree's root box, exercising the spec's round-trip
// property (§8 "AABB quantisation round-trip").
func (t *AABBTree) QuantizedBV(n NodeRef) geom.Box {
	return dequantizeExtents(t.rootBox, t.nodes[n].Quant)
}

func (t *AABBTree) Children(n NodeRef) (NodeRef, NodeRef) {
	node := t.nodes[n]
	if node.TriCount > 0 {
		return NoNode, NoNode
	}
	return node.Left, node.Right
}

func (t *AABBTree) Contents(n NodeRef) []int {
	node := t.nodes[n]
	if node.TriCount == 0 {
		return nil
	}
	return t.triIdx[node.TriStart : node.TriStart+node.TriCount]
}

func (t *AABBTree) MarkUsed(scope *scratch.Scope, triIndex int) bool {
	return scope.MarkUsed(triIndex)
}

func (t *AABBTree) Prepare() *scratch.Scope { return scratch.Acquire() }
func (t *AABBTree) Cleanup(s *scratch.Scope) { scratch.Release(s) }

func (t *AABBTree) QueryBox(box geom.Box) []int {
	if len(t.nodes) == 0 {
		return nil
	}
	scope := t.Prepare()
	defer t.Cleanup(scope)
	t.queryBoxNode(Root, box, scope)
	out := make([]int, len(scope.Indices()))
	copy(out, scope.Indices())
	return out
}

func (t *AABBTree) queryBoxNode(n NodeRef, box geom.Box, scope *scratch.Scope) {
	node := t.nodes[n]
	if !node.Bounds.Intersects(box) {
		return
	}
	if node.TriCount > 0 {
		for _, ti := range t.Contents(n) {
			if scope.MarkUsed(ti) {
				scope.Append(ti)
			}
		}
		return
	}
	t.queryBoxNode(node.Left, box, scope)
	t.queryBoxNode(node.Right, box, scope)
}

func (t *AABBTree) QueryRay(r geom.Ray, maxDist float32) []int {
	if len(t.nodes) == 0 {
		return nil
	}
	scope := t.Prepare()
	defer t.Cleanup(scope)
	t.queryRayNode(Root, r, maxDist, scope)
	out := make([]int, len(scope.Indices()))
	copy(out, scope.Indices())
	return out
}

func (t *AABBTree) queryRayNode(n NodeRef, r geom.Ray, maxDist float32, scope *scratch.Scope) {
	node := t.nodes[n]
	if _, _, ok := node.Bounds.RayIntersect(r, maxDist); !ok {
		return
	}
	if node.TriCount > 0 {
		for _, ti := range t.Contents(n) {
			if scope.MarkUsed(ti) {
				scope.Append(ti)
			}
		}
		return
	}
	t.queryRayNode(node.Left, r, maxDist, scope)
	t.queryRayNode(node.Right, r, maxDist, scope)
}

// ChildWorldBoxes decodes a node's two children into world-space boxes
// under an optional world pose, implementing the spec's §4.1
// "get_children_bvs" under a world transform.
func (t *AABBTree) ChildWorldBoxes(n NodeRef, pose geom.Pose) (geom.Box, geom.Box, bool) {
	left, right := t.Children(n)
	if left == NoNode {
		return geom.Box{}, geom.Box{}, false
	}
	lb := transformBox(t.NodeBV(left), pose)
	rb := transformBox(t.NodeBV(right), pose)
	return lb, rb, true
}

func transformBox(b geom.Box, pose geom.Pose) geom.Box {
	out := geom.EmptyBox()
	for _, c := range boxCorners(b) {
		out = out.Grow(pose.TransformPoint(c))
	}
	return out
}

// Swept returns the node's box extended along a sweep, per spec §4.1
// "swept extraction" for continuous collision queries.
func (t *AABBTree) Swept(n NodeRef, direction geom.Vec3, length float32) geom.Box {
	return t.NodeBV(n).Swept(direction, length)
}

var _ Tree = (*AABBTree)(nil)
