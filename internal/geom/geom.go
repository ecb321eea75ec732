// Package geom defines the primitive value types shared by every collision
// package: triangles, rays, boxes (axis- and object-aligned), planes and
// spheres. Types carry no heap state and no identity; they are copied by
// value the way the teacher engine copies rl.Vector3 and rl.Matrix.
package geom

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Vec3 is an alias for raylib's vector type so every package in this module
// shares one vector vocabulary instead of wrapping it again.
type Vec3 = rl.Vector3

// Triangle is a triangle with its precomputed unit normal, carried through
// from the teacher's components.Triangle.
type Triangle struct {
	V0, V1, V2 Vec3
	Normal     Vec3
}

// NewTriangle computes the normal from winding order (V1-V0) x (V2-V0).
func NewTriangle(v0, v1, v2 Vec3) Triangle {
	e1 := rl.Vector3Subtract(v1, v0)
	e2 := rl.Vector3Subtract(v2, v0)
	n := rl.Vector3Normalize(rl.Vector3CrossProduct(e1, e2))
	return Triangle{V0: v0, V1: v1, V2: v2, Normal: n}
}

// Area returns the triangle's unsigned area.
func (t Triangle) Area() float32 {
	e1 := rl.Vector3Subtract(t.V1, t.V0)
	e2 := rl.Vector3Subtract(t.V2, t.V0)
	return rl.Vector3Length(rl.Vector3CrossProduct(e1, e2)) * 0.5
}

// Centroid returns the triangle's barycentric centroid.
func (t Triangle) Centroid() Vec3 {
	return rl.Vector3Scale(rl.Vector3Add(rl.Vector3Add(t.V0, t.V1), t.V2), 1.0/3.0)
}

// SignedVolume returns the signed volume of the tetrahedron spanned by the
// origin and the triangle: (v1-v0) x (v2-v0) . (v0+v1+v2) / 18, which equals
// v0 . (v1 x v2) / 6.
func (t Triangle) SignedVolume() float32 {
	cross := rl.Vector3CrossProduct(rl.Vector3Subtract(t.V1, t.V0), rl.Vector3Subtract(t.V2, t.V0))
	sum := rl.Vector3Add(rl.Vector3Add(t.V0, t.V1), t.V2)
	return rl.Vector3DotProduct(cross, sum) / 18.0
}

// Ray is a parametric ray, origin + t*direction, direction assumed unit.
type Ray struct {
	Origin, Direction Vec3
}

// Plane is a plane in point-normal form.
type Plane struct {
	Point, Normal Vec3
}

// Sphere is a center + radius volume.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Pose is a rigid (plus uniform scale) world transform, used wherever the
// spec calls for a caller-supplied world transform rather than a baked one
// (§4.1 child-BV extraction, §4.2 OBB build).
type Pose struct {
	Position Vec3
	Rotation Vec3 // euler degrees, applied X then Y then Z as the teacher does
	Scale    Vec3
}

// IdentityPose returns a no-op transform.
func IdentityPose() Pose {
	return Pose{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// Matrix builds the world transform matrix for this pose, in the same
// scale -> rotate -> translate order as components.MeshCollider.BuildFromModel.
func (p Pose) Matrix() rl.Matrix {
	scaleM := rl.MatrixScale(p.Scale.X, p.Scale.Y, p.Scale.Z)
	rotX := rl.MatrixRotateX(p.Rotation.X * rl.Deg2rad)
	rotY := rl.MatrixRotateY(p.Rotation.Y * rl.Deg2rad)
	rotZ := rl.MatrixRotateZ(p.Rotation.Z * rl.Deg2rad)
	rotM := rl.MatrixMultiply(rl.MatrixMultiply(rotX, rotY), rotZ)
	transM := rl.MatrixTranslate(p.Position.X, p.Position.Y, p.Position.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(scaleM, rotM), transM)
}

// TransformPoint applies the pose's matrix to a point.
func (p Pose) TransformPoint(v Vec3) Vec3 {
	return rl.Vector3Transform(v, p.Matrix())
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	return float32(math.Min(float64(a), float64(b)))
}

func maxf(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}

func vmin(a, b Vec3) Vec3 {
	return Vec3{X: minf(a.X, b.X), Y: minf(a.Y, b.Y), Z: minf(a.Z, b.Z)}
}

func vmax(a, b Vec3) Vec3 {
	return Vec3{X: maxf(a.X, b.X), Y: maxf(a.Y, b.Y), Z: maxf(a.Z, b.Z)}
}
