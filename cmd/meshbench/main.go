// Stress test for the collision-geometry core: mesh build, BVH query, and
// boolean subtract across a range of triangle counts. CPU-only — this core
// has no GPU path (see Non-goals).
package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"collidecore/internal/boolean"
	"collidecore/internal/geom"
	"collidecore/internal/mesh"
)

func main() {
	fmt.Println("collidecore meshbench (CPU-only)")
	fmt.Println()

	for _, subdiv := range []int{4, 8, 16, 24, 32} {
		benchSphere(subdiv)
	}

	fmt.Println()
	benchBoolean()
}

func benchSphere(subdiv int) {
	rand.Seed(42)

	buildStart := time.Now()
	m := sphereMesh(1.0, subdiv)
	buildTime := time.Since(buildStart)

	const rayIterations = 2000
	rayStart := time.Now()
	var hits int
	for i := 0; i < rayIterations; i++ {
		r := geom.Ray{
			Origin:    geom.Vec3{X: 0, Y: 0, Z: 10},
			Direction: geom.Vec3{X: 0, Y: 0, Z: -1},
		}
		if len(m.Tree.QueryRay(r, 20)) > 0 {
			hits++
		}
	}
	rayTime := time.Since(rayStart) / rayIterations

	fmt.Printf("%6d tris: build %10v | ray-query avg %8v (%d/%d hit candidates)\n",
		m.TriCount(), buildTime.Round(time.Microsecond), rayTime.Round(time.Microsecond), hits, rayIterations)
}

func benchBoolean() {
	a := cubeMesh(geom.Vec3{}, 2)
	b := cubeMesh(geom.Vec3{}, 0.5)

	start := time.Now()
	ok := boolean.Subtract(a, b, boolean.DefaultOptions())
	elapsed := time.Since(start)

	fmt.Printf("boolean subtract (cube - cube): ok=%v elapsed=%v result tris=%d volume=%.4f\n",
		ok, elapsed.Round(time.Microsecond), a.TriCount(), a.Volume())
}

// sphereMesh builds a UV sphere with the given subdivision count per axis,
// used to scale triangle count for the BVH benchmark.
func sphereMesh(radius float32, subdiv int) *mesh.Mesh {
	var verts []geom.Vec3
	var idx []int32

	for lat := 0; lat <= subdiv; lat++ {
		theta := math.Pi * float64(lat) / float64(subdiv)
		for lon := 0; lon <= subdiv; lon++ {
			phi := 2 * math.Pi * float64(lon) / float64(subdiv)
			x := radius * float32(math.Sin(theta)*math.Cos(phi))
			y := radius * float32(math.Cos(theta))
			z := radius * float32(math.Sin(theta)*math.Sin(phi))
			verts = append(verts, geom.Vec3{X: x, Y: y, Z: z})
		}
	}

	stride := subdiv + 1
	for lat := 0; lat < subdiv; lat++ {
		for lon := 0; lon < subdiv; lon++ {
			a := int32(lat*stride + lon)
			b := int32(lat*stride + lon + 1)
			c := int32((lat+1)*stride + lon)
			d := int32((lat+1)*stride + lon + 1)
			idx = append(idx, a, c, b, b, c, d)
		}
	}

	m := mesh.NewMesh()
	m.Vertices = verts
	m.Indices = idx
	m.Build(mesh.DefaultBuildOptions())
	return m
}

func cubeMesh(center geom.Vec3, half float32) *mesh.Mesh {
	c, h := center, half
	v := [8]geom.Vec3{
		{X: c.X - h, Y: c.Y - h, Z: c.Z - h}, {X: c.X + h, Y: c.Y - h, Z: c.Z - h},
		{X: c.X + h, Y: c.Y + h, Z: c.Z - h}, {X: c.X - h, Y: c.Y + h, Z: c.Z - h},
		{X: c.X - h, Y: c.Y - h, Z: c.Z + h}, {X: c.X + h, Y: c.Y - h, Z: c.Z + h},
		{X: c.X + h, Y: c.Y + h, Z: c.Z + h}, {X: c.X - h, Y: c.Y + h, Z: c.Z + h},
	}
	idx := []int32{
		0, 2, 1, 0, 3, 2,
		4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4,
		3, 7, 6, 3, 6, 2,
		0, 4, 7, 0, 7, 3,
		1, 2, 6, 1, 6, 5,
	}
	m := mesh.NewMesh()
	m.Vertices = v[:]
	m.Indices = idx
	m.Build(mesh.DefaultBuildOptions())
	return m
}
