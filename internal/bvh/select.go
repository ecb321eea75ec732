package bvh

import "collidecore/internal/geom"

// Kind tags which concrete Tree a Select call picked, for callers (e.g. the
// mesh package's save/load) that need to know the tagged variant without a
// type switch on every use.
type Kind int

const (
	KindSingleBox Kind = iota
	KindAABB
	KindOBB
	KindOrientedAABB
)

// orientedAABBFavor mirrors trimesh.cpp:557's "favor non-oriented AABBs
// slightly" — the rotated-frame candidate's volume is scaled up by this
// factor before comparison, so it only wins when it's a clearly tighter fit
// and not just numerically even with the world-axis tree.
const orientedAABBFavor = 1.01

// Select builds all three tree candidates the spec's §4.3 step 4 calls for
// ("axis-aligned, oriented-axis-aligned... and OBB" — trimesh.cpp:521-559's
// mesh_AABB / mesh_AABB_rotated / mesh_OBB build) and keeps the one with
// the smallest (suitably weighted) bounding volume, discarding the others.
// Meshes below minTrianglesForHierarchy always get the single-box tree,
// since a hierarchy can't pay for itself below that size.
func Select(tris []geom.Triangle, params BuildParams, minTrianglesForHierarchy int) (Tree, Kind) {
	if len(tris) < minTrianglesForHierarchy {
		return BuildSingleBoxTree(tris), KindSingleBox
	}

	aabbTree := BuildAABBTree(tris, params)
	if aabbTree.NodeCount() == 0 {
		return BuildSingleBoxTree(tris), KindSingleBox
	}
	orientedTree := BuildOrientedAABBTree(tris, params)
	obbTree := BuildOBBTree(tris, params)

	aabbVol := aabbTree.NodeBV(Root).Volume()
	orientedVol := orientedTree.NodeBV(Root).Volume() * orientedAABBFavor

	bestBox, bestKind := aabbTree.NodeBV(Root), KindAABB
	if orientedVol < aabbVol {
		bestBox, bestKind = orientedTree.NodeBV(Root), KindOrientedAABB
	}

	if ShouldPreferOBB(obbTree.OBBAt(Root), bestBox, params.FavorAABB) {
		return obbTree, KindOBB
	}
	if bestKind == KindOrientedAABB {
		return orientedTree, KindOrientedAABB
	}
	return aabbTree, KindAABB
}
