// Package voxel implements spec §4.13: voxelizing a mesh into a grid and
// synthesizing a small set of oriented boxes that cover it ("boxify").
// Grounded on internal/bvh/obbtree.go's gonum-PCA fitting for the OBB
// orientation steps, generalized from "fit one box per BVH node" to "fit
// one box per flat patch of the mesh".
package voxel

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

// Grid is a voxelization of a mesh in a caller-chosen rotated frame (spec
// §4.13 "Voxelize"). Cells are indexed [x*size*size + y*size + z] with
// size = 2*Dim+1 and the origin cell at (Dim,Dim,Dim).
type Grid struct {
	Dim      int32
	CellSize float32
	Rotation geom.Pose // orientation only; Position/Scale ignored
	Cells    []byte    // 1 = occupied-or-filled
}

func (g *Grid) size() int32 { return 2*g.Dim + 1 }

func (g *Grid) index(cx, cy, cz int32) int {
	s := g.size()
	return int((cx*s+cy)*s + cz)
}

func (g *Grid) inBounds(cx, cy, cz int32) bool {
	s := g.size()
	return cx >= 0 && cy >= 0 && cz >= 0 && cx < s && cy < s && cz < s
}

// At reports whether cell (cx,cy,cz) is occupied or filled.
func (g *Grid) At(cx, cy, cz int32) bool {
	if !g.inBounds(cx, cy, cz) {
		return false
	}
	return g.Cells[g.index(cx, cy, cz)] != 0
}

// Voxelize rasterizes m into a grid oriented by rotation, sized to
// `cellSize`, per spec §4.13. It marks a cell "occupied" when a triangle
// centroid falls in it, then fills interior cells via a per-column
// depth-counter parity pass along local Z.
func Voxelize(m *mesh.Mesh, rotation geom.Pose, cellSize float32) *Grid {
	return voxelizeTriangles(m.Triangles(), rotation, cellSize)
}

func voxelizeTriangles(tris []geom.Triangle, rotation geom.Pose, cellSize float32) *Grid {
	inv := rl.MatrixInvert(rotation.Matrix())

	local := make([]geom.Triangle, len(tris))
	maxExtent := float32(0)
	for i, t := range tris {
		v0 := rl.Vector3Transform(t.V0, inv)
		v1 := rl.Vector3Transform(t.V1, inv)
		v2 := rl.Vector3Transform(t.V2, inv)
		local[i] = geom.NewTriangle(v0, v1, v2)
		for _, v := range [3]geom.Vec3{v0, v1, v2} {
			maxExtent = maxf(maxExtent, absf(v.X))
			maxExtent = maxf(maxExtent, absf(v.Y))
			maxExtent = maxf(maxExtent, absf(v.Z))
		}
	}

	dim := int32(math.Ceil(float64(maxExtent/cellSize))) + 1
	if dim < 1 {
		dim = 1
	}
	g := &Grid{Dim: dim, CellSize: cellSize, Rotation: rotation}
	size := g.size()
	g.Cells = make([]byte, size*size*size)

	toCell := func(v geom.Vec3) (int32, int32, int32) {
		cx := int32(math.Round(float64(v.X/cellSize))) + dim
		cy := int32(math.Round(float64(v.Y/cellSize))) + dim
		cz := int32(math.Round(float64(v.Z/cellSize))) + dim
		return cx, cy, cz
	}

	type delta struct {
		cx, cy, cz int32
		sign       int32
	}
	var deltas []delta

	for _, t := range local {
		centroid := t.Centroid()
		cx, cy, cz := toCell(centroid)
		if g.inBounds(cx, cy, cz) {
			g.Cells[g.index(cx, cy, cz)] = 1
		}
		sign := int32(1)
		if t.Normal.Z < 0 {
			sign = -1
		}
		deltas = append(deltas, delta{cx, cy, cz, sign})
	}

	type key struct{ x, y int32 }
	columns := make(map[key][]delta)
	for _, d := range deltas {
		k := key{d.cx, d.cy}
		columns[k] = append(columns[k], d)
	}

	for k, ds := range columns {
		depthAt := make(map[int32]int32, len(ds))
		for _, d := range ds {
			depthAt[d.cz] += d.sign
		}
		running := int32(0)
		for z := int32(0); z < size; z++ {
			running += depthAt[z]
			if running != 0 && g.inBounds(k.x, k.y, z) {
				g.Cells[g.index(k.x, k.y, z)] = 1
			}
		}
	}

	return g
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
