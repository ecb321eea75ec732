package bvh

import (
	"collidecore/internal/geom"
	"collidecore/internal/scratch"
)

// SingleBoxTree is the spec's degenerate one-node BVH, used for meshes too
// small to benefit from a hierarchy (spec §3 "Single-box tree").
type SingleBoxTree struct {
	bounds geom.Box
	tris   []int
}

// BuildSingleBoxTree wraps every triangle index into one leaf node.
func BuildSingleBoxTree(tris []geom.Triangle) *SingleBoxTree {
	b := geom.EmptyBox()
	idx := make([]int, len(tris))
	for i, tri := range tris {
		idx[i] = i
		b = b.Grow(tri.V0)
		b = b.Grow(tri.V1)
		b = b.Grow(tri.V2)
	}
	return &SingleBoxTree{bounds: b, tris: idx}
}

func (s *SingleBoxTree) NodeCount() int { return 1 }

func (s *SingleBoxTree) NodeBV(NodeRef) geom.Box { return s.bounds }

func (s *SingleBoxTree) Children(NodeRef) (NodeRef, NodeRef) { return NoNode, NoNode }

func (s *SingleBoxTree) Contents(NodeRef) []int { return s.tris }

func (s *SingleBoxTree) MarkUsed(scope *scratch.Scope, triIndex int) bool {
	return scope.MarkUsed(triIndex)
}

func (s *SingleBoxTree) Prepare() *scratch.Scope  { return scratch.Acquire() }
func (s *SingleBoxTree) Cleanup(sc *scratch.Scope) { scratch.Release(sc) }

func (s *SingleBoxTree) QueryBox(box geom.Box) []int {
	if !s.bounds.Intersects(box) {
		return nil
	}
	return s.tris
}

func (s *SingleBoxTree) QueryRay(r geom.Ray, maxDist float32) []int {
	if _, _, ok := s.bounds.RayIntersect(r, maxDist); !ok {
		return nil
	}
	return s.tris
}

var _ Tree = (*SingleBoxTree)(nil)
