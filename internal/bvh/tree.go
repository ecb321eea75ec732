// Package bvh implements the three bounding-volume hierarchy flavors the
// spec requires (§4.1 AABB tree, §4.2 OBB tree, and the degenerate
// single-box tree) behind one uniform Tree interface (§2 component 5 /
// §9 "tagged sum, not subtype polymorphism").
package bvh

import (
	"collidecore/internal/geom"
	"collidecore/internal/scratch"
)

// NodeRef indexes a node within a Tree's internal node array. -1 means "no
// node" (used for parent links and absent children).
type NodeRef int32

const NoNode NodeRef = -1

// BuildParams controls tree construction (spec §6 "Build parameters").
type BuildParams struct {
	MinTrisPerNode int
	MaxTrisPerNode int
	MaxDepth       int
	SkipDim        float32 // fraction of root extent below which a leaf is single_collision
	FavorAABB      float32 // OBB must beat AABB volume by this factor to be chosen (§4.2)
	PlaneOptimize  bool
}

// DefaultBuildParams mirrors the constants the teacher's BVH builder used
// (leaf at <=4 triangles, depth cap 20) generalized to the spec's named
// fields.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		MinTrisPerNode: 1,
		MaxTrisPerNode: 4,
		MaxDepth:       20,
		SkipDim:        0.02,
		FavorAABB:      1.0,
		PlaneOptimize:  true,
	}
}

// Tree is the uniform interface exposed by AABBTree, OBBTree and
// SingleBoxTree, matching spec §9's enumerated trait operations.
type Tree interface {
	// NodeCount returns the number of internal+leaf nodes.
	NodeCount() int
	// NodeBV returns the world-axis-aligned bounding box of a node; oriented
	// trees return the tight world box around their oriented volume.
	NodeBV(node NodeRef) geom.Box
	// Children returns a node's two children, or (NoNode, NoNode) at a leaf.
	Children(node NodeRef) (left, right NodeRef)
	// Contents returns the triangle indices owned by a leaf node (nil for
	// internal nodes).
	Contents(node NodeRef) []int
	// MarkUsed deduplicates a triangle against a query-scoped used-set,
	// returning true the first time a given global triangle index is seen.
	MarkUsed(scope *scratch.Scope, triIndex int) bool
	// Prepare acquires a query scope (scratch ring + used-triangle map).
	Prepare() *scratch.Scope
	// Cleanup releases the scope acquired by Prepare.
	Cleanup(scope *scratch.Scope)
	// QueryBox returns every leaf triangle index whose node overlaps box.
	QueryBox(box geom.Box) []int
	// QueryRay returns every leaf triangle index whose node the ray crosses
	// within maxDist, in no particular order (callers intersect the actual
	// triangles through the intersector catalog).
	QueryRay(r geom.Ray, maxDist float32) []int
}

// Root returns the root node reference for any non-empty tree.
const Root NodeRef = 0
