package voxel

import (
	"math"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/mat"

	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

// BoxifyOptions mirrors the spec §4.13 Boxify tuning constants.
type BoxifyOptions struct {
	MaxBoxes        int
	MaxFaceTilt     float32 // radians; dihedral angle patch-growth threshold
	DistFilter      float32
	CellSize        float32
	MinLayerFilling float32
	MaxLayerReusage float32
}

func DefaultBoxifyOptions() BoxifyOptions {
	return BoxifyOptions{
		MaxBoxes:        8,
		MaxFaceTilt:     0.26, // ~15 degrees
		DistFilter:      0.02,
		CellSize:        0.1,
		MinLayerFilling: 0.5,
		MaxLayerReusage: 0.3,
	}
}

// Boxify produces up to opts.MaxBoxes oriented boxes covering m, per spec
// §4.13. Patches grow by flood-fill from a seed triangle, judging each
// neighbour against the seed's normal and plane (see growPatch),
// each patch is PCA-fit into a box exactly as internal/bvh/obbtree.go fits
// OBB-tree nodes, and the box is then extended along its inward normal by
// re-voxelizing in the box's own frame.
func Boxify(m *mesh.Mesh, opts BoxifyOptions) []geom.OBB {
	triCount := m.TriCount()
	if triCount == 0 {
		return nil
	}

	order := make([]int, triCount)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return m.TriangleAt(order[a]).Area() > m.TriangleAt(order[b]).Area()
	})

	assigned := make([]bool, triCount)
	claimed := map[[3]int32]bool{}
	var boxes []geom.OBB

	for _, seed := range order {
		if len(boxes) >= opts.MaxBoxes {
			break
		}
		if assigned[seed] {
			continue
		}
		patch := growPatch(m, seed, assigned, opts)
		if len(patch) == 0 {
			continue
		}
		for _, t := range patch {
			assigned[t] = true
		}

		box := fitPatchOBB(m, patch)
		extendBoxDownward(m, &box, claimed, opts)
		boxes = append(boxes, box)
		claimCells(box, opts.CellSize, claimed)
	}

	if len(boxes) < opts.MaxBoxes {
		if leftover := unclaimedBox(m, claimed, opts); leftover != nil {
			boxes = append(boxes, *leftover)
		}
	}

	return boxes
}

// growPatch flood-fills across topology neighbors whose normal stays
// within MaxFaceTilt of the seed's normal or whose centroid stays within
// DistFilter of the seed triangle's plane.
func growPatch(m *mesh.Mesh, seed int, assigned []bool, opts BoxifyOptions) []int {
	seedNormal := m.Normals[seed]
	seedPoint := m.TriangleAt(seed).Centroid()
	cosThreshold := cosf(opts.MaxFaceTilt)

	visited := map[int]bool{seed: true}
	queue := []int{seed}
	var patch []int

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		patch = append(patch, t)

		if t >= len(m.Topo) {
			continue
		}
		for _, n := range m.Topo[t].Neighbor {
			if n < 0 || visited[n] || assigned[n] {
				continue
			}
			nTri := m.TriangleAt(int(n))
			cos := rl.Vector3DotProduct(seedNormal, nTri.Normal)
			dist := absf(rl.Vector3DotProduct(rl.Vector3Subtract(nTri.Centroid(), seedPoint), seedNormal))
			if cos >= cosThreshold || dist <= opts.DistFilter {
				visited[n] = true
				queue = append(queue, int(n))
			}
		}
	}
	return patch
}

// fitPatchOBB fits a tight oriented box to a patch's vertices via PCA,
// using the same covariance-eigenbasis approach internal/bvh uses for
// OBB-tree nodes (gonum.org/v1/gonum/mat.EigenSym).
func fitPatchOBB(m *mesh.Mesh, patch []int) geom.OBB {
	seen := map[int32]bool{}
	var pts []geom.Vec3
	for _, t := range patch {
		i0, i1, i2 := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		for _, idx := range [3]int32{i0, i1, i2} {
			if !seen[idx] {
				seen[idx] = true
				pts = append(pts, m.Vertices[idx])
			}
		}
	}
	if len(pts) == 0 {
		return geom.AxisAlignedOBB(geom.Vec3{}, geom.Vec3{})
	}

	var mean geom.Vec3
	for _, p := range pts {
		mean = rl.Vector3Add(mean, p)
	}
	mean = rl.Vector3Scale(mean, 1/float32(len(pts)))

	cov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			var sum float64
			for _, p := range pts {
				d := rl.Vector3Subtract(p, mean)
				sum += float64(axisOf(d, i) * axisOf(d, j))
			}
			cov.SetSym(i, j, sum/float64(len(pts)))
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(cov, true)
	var axes [3]geom.Vec3
	if !ok {
		axes = [3]geom.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
	} else {
		var vecs mat.Dense
		eig.VectorsTo(&vecs)
		for c := 0; c < 3; c++ {
			axes[c] = geom.Vec3{
				X: float32(vecs.At(0, c)),
				Y: float32(vecs.At(1, c)),
				Z: float32(vecs.At(2, c)),
			}
		}
	}

	obb := geom.NewOBBFromAxes(mean, geom.Vec3{}, axes)
	half := geom.Vec3{}
	for _, p := range pts {
		d := rl.Vector3Subtract(p, mean)
		for c := 0; c < 3; c++ {
			proj := absf(rl.Vector3DotProduct(d, axes[c]))
			setAxis(&half, c, maxf(axisOf(half, c), proj))
		}
	}
	obb.HalfSize = half
	return obb
}

func axisOf(v geom.Vec3, i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxis(v *geom.Vec3, i int, val float32) {
	switch i {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
}

// extendBoxDownward grows box along its inward normal (-axis Z, by this
// module's convention) as long as each new voxel layer is at least
// MinLayerFilling occupied and reuses no more than MaxLayerReusage of
// already-claimed cells, per spec §4.13 step 3.
func extendBoxDownward(m *mesh.Mesh, box *geom.OBB, claimed map[[3]int32]bool, opts BoxifyOptions) {
	pose := geom.Pose{Position: box.Center, Rotation: geom.Vec3{}, Scale: geom.Vec3{X: 1, Y: 1, Z: 1}}
	grid := Voxelize(m, pose, opts.CellSize)

	layerZ := int32(box.HalfSize.Z / opts.CellSize)
	size := grid.size()
	for layerZ < size {
		total, filled, reused := int32(0), int32(0), int32(0)
		for x := int32(0); x < size; x++ {
			for y := int32(0); y < size; y++ {
				total++
				if grid.At(x, y, layerZ) {
					filled++
					if claimed[[3]int32{x, y, layerZ}] {
						reused++
					}
				}
			}
		}
		if total == 0 {
			break
		}
		fillRatio := float32(filled) / float32(total)
		reuseRatio := float32(0)
		if filled > 0 {
			reuseRatio = float32(reused) / float32(filled)
		}
		if fillRatio < opts.MinLayerFilling || reuseRatio > opts.MaxLayerReusage {
			break
		}
		box.HalfSize.Z += opts.CellSize
		layerZ++
	}
}

func claimCells(box geom.OBB, cellSize float32, claimed map[[3]int32]bool) {
	nx := int32(box.HalfSize.X/cellSize) + 1
	ny := int32(box.HalfSize.Y/cellSize) + 1
	nz := int32(box.HalfSize.Z/cellSize) + 1
	for x := -nx; x <= nx; x++ {
		for y := -ny; y <= ny; y++ {
			for z := -nz; z <= nz; z++ {
				claimed[[3]int32{x, y, z}] = true
			}
		}
	}
}

// unclaimedBox returns one axis-aligned box around the centers of every
// filled voxel not yet claimed (spec §4.13 step 5). The cells are not split
// into islands and the box is not PCA-oriented.
func unclaimedBox(m *mesh.Mesh, claimed map[[3]int32]bool, opts BoxifyOptions) *geom.OBB {
	grid := Voxelize(m, geom.IdentityPose(), opts.CellSize)
	size := grid.size()
	var cells []geom.Vec3
	for x := int32(0); x < size; x++ {
		for y := int32(0); y < size; y++ {
			for z := int32(0); z < size; z++ {
				if !grid.At(x, y, z) {
					continue
				}
				if claimed[[3]int32{x - grid.Dim, y - grid.Dim, z - grid.Dim}] {
					continue
				}
				cells = append(cells, geom.Vec3{
					X: float32(x-grid.Dim) * opts.CellSize,
					Y: float32(y-grid.Dim) * opts.CellSize,
					Z: float32(z-grid.Dim) * opts.CellSize,
				})
			}
		}
	}
	if len(cells) == 0 {
		return nil
	}

	b := geom.EmptyBox()
	for _, c := range cells {
		b = b.Grow(c)
	}
	obb := geom.AxisAlignedOBB(b.Center(), b.Size())
	return &obb
}

func cosf(radians float32) float32 {
	return float32(math.Cos(float64(radians)))
}
