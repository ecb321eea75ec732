package mesh

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
)

// HashGrid is the spec §3/§4.7 planar hash grid: a 2D cell grid over a
// chosen projection plane, indexing triangles for fast ray queries. It is
// the direct descendant (in shape) of the teacher's
// PhysicsWorld.grid spatial hash, projected from 3D cells to a 2D plane
// and restricted to prefix-summed index arrays instead of per-cell slices.
type HashGrid struct {
	Basis     [3]geom.Vec3 // local X, Y, and plane-normal Z axes
	Origin    geom.Vec3
	Step      [2]float32
	StepRecip [2]float32
	Size      [2]int32
	CellStart []int32 // prefix sum, len = Size[0]*Size[1]+1
	TriList   []int32 // triangle indices per cell, ascending within a cell
}

// BuildHashGrid lazily constructs the mesh's hash grid if absent, choosing
// the projection plane whose normal is most aligned with the mesh's first
// triangle normal, and sizing a roughly sqrt(triCount) x sqrt(triCount)
// grid bounded by 64x64, per spec §4.7.
func (m *Mesh) BuildHashGrid() *HashGrid {
	m.hashGridOnce.Do(func() {
		m.hashGrid = buildHashGrid(m)
	})
	return m.hashGrid
}

func buildHashGrid(m *Mesh) *HashGrid {
	triCount := m.TriCount()
	if triCount == 0 {
		return &HashGrid{Size: [2]int32{1, 1}, CellStart: []int32{0, 0}}
	}

	normal := m.Normals[0]
	basis := planeBasisFor(normal)

	bounds2D := [2][2]float32{{math.MaxFloat32, math.MaxFloat32}, {-math.MaxFloat32, -math.MaxFloat32}}
	project := func(v geom.Vec3) (float32, float32) {
		return rl.Vector3DotProduct(v, basis[0]), rl.Vector3DotProduct(v, basis[1])
	}
	for _, v := range m.Vertices {
		x, y := project(v)
		if x < bounds2D[0][0] {
			bounds2D[0][0] = x
		}
		if y < bounds2D[0][1] {
			bounds2D[0][1] = y
		}
		if x > bounds2D[1][0] {
			bounds2D[1][0] = x
		}
		if y > bounds2D[1][1] {
			bounds2D[1][1] = y
		}
	}

	res := int32(math.Sqrt(float64(triCount)))
	if res < 1 {
		res = 1
	}
	if res > 64 {
		res = 64
	}

	width := bounds2D[1][0] - bounds2D[0][0]
	height := bounds2D[1][1] - bounds2D[0][1]
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	grid := &HashGrid{
		Basis:  basis,
		Origin: geom.Vec3{X: bounds2D[0][0], Y: bounds2D[0][1]},
		Step:   [2]float32{width / float32(res), height / float32(res)},
		Size:   [2]int32{res, res},
	}
	grid.StepRecip = [2]float32{1 / grid.Step[0], 1 / grid.Step[1]}

	counts := make([]int32, res*res)
	type cellHit struct {
		cell int32
		tri  int32
	}
	var hits []cellHit

	for t := int32(0); t < int32(triCount); t++ {
		tri := m.TriangleAt(int(t))
		minCX, minCY, maxCX, maxCY := triangleCellRange(tri, grid)
		for cy := minCY; cy <= maxCY; cy++ {
			for cx := minCX; cx <= maxCX; cx++ {
				cell := cy*res + cx
				counts[cell]++
				hits = append(hits, cellHit{cell: cell, tri: t})
			}
		}
	}

	prefix := make([]int32, res*res+1)
	for i := int32(0); i < res*res; i++ {
		prefix[i+1] = prefix[i] + counts[i]
	}
	triList := make([]int32, prefix[res*res])
	write := make([]int32, res*res)
	copy(write, prefix[1:])

	// Write in descending triangle order, filling each cell from its end,
	// so the cell lists end up ascending (spec §4.7).
	for i := len(hits) - 1; i >= 0; i-- {
		h := hits[i]
		write[h.cell]--
		triList[write[h.cell]] = h.tri
	}

	grid.CellStart = prefix
	grid.TriList = triList
	return grid
}

func planeBasisFor(normal geom.Vec3) [3]geom.Vec3 {
	n := rl.Vector3Normalize(normal)
	up := geom.Vec3{Y: 1}
	if absf(rl.Vector3DotProduct(n, up)) > 0.99 {
		up = geom.Vec3{X: 1}
	}
	x := rl.Vector3Normalize(rl.Vector3CrossProduct(up, n))
	y := rl.Vector3CrossProduct(n, x)
	return [3]geom.Vec3{x, y, n}
}

func triangleCellRange(tri geom.Triangle, g *HashGrid) (int32, int32, int32, int32) {
	project := func(v geom.Vec3) (float32, float32) {
		return rl.Vector3DotProduct(v, g.Basis[0]), rl.Vector3DotProduct(v, g.Basis[1])
	}
	x0, y0 := project(tri.V0)
	x1, y1 := project(tri.V1)
	x2, y2 := project(tri.V2)

	minX := minOf3(x0, x1, x2)
	maxX := maxOf3(x0, x1, x2)
	minY := minOf3(y0, y1, y2)
	maxY := maxOf3(y0, y1, y2)

	toCell := func(x, y float32) (int32, int32) {
		cx := int32((x - g.Origin.X) * g.StepRecip[0])
		cy := int32((y - g.Origin.Y) * g.StepRecip[1])
		if cx < 0 {
			cx = 0
		}
		if cy < 0 {
			cy = 0
		}
		if cx >= g.Size[0] {
			cx = g.Size[0] - 1
		}
		if cy >= g.Size[1] {
			cy = g.Size[1] - 1
		}
		return cx, cy
	}
	minCX, minCY := toCell(minX, minY)
	maxCX, maxCY := toCell(maxX, maxY)
	return minCX, minCY, maxCX, maxCY
}

func minOf3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxOf3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// CellTriangles returns the triangle indices stored in cell (cx,cy).
func (g *HashGrid) CellTriangles(cx, cy int32) []int32 {
	cell := cy*g.Size[0] + cx
	return g.TriList[g.CellStart[cell]:g.CellStart[cell+1]]
}
