package mesh

import rl "github.com/gen2brain/raylib-go/raylib"

// convexEntry is one slot of the convexity cache (spec §4.5).
type convexEntry struct {
	tolerance float32
	isConvex  bool
}

// convexityCache holds up to four {tolerance -> isConvex} entries, promoting
// the hit entry to the front — the same debounced-cache shape as the
// teacher's Rigidbody sleep state machine, applied to a memoized predicate
// instead of a physics body (see SPEC_FULL.md "supplemented features").
type convexityCache struct {
	entries [4]convexEntry
	count   int
}

func (c *convexityCache) clear() {
	c.count = 0
}

func (c *convexityCache) lookup(tolerance float32) (bool, bool) {
	for i := 0; i < c.count; i++ {
		if c.entries[i].tolerance == tolerance {
			result := c.entries[i].isConvex
			c.promote(i)
			return result, true
		}
	}
	return false, false
}

func (c *convexityCache) promote(i int) {
	if i == 0 {
		return
	}
	e := c.entries[i]
	copy(c.entries[1:i+1], c.entries[0:i])
	c.entries[0] = e
}

func (c *convexityCache) insert(tolerance float32, isConvex bool) {
	if c.count < len(c.entries) {
		copy(c.entries[1:c.count+1], c.entries[0:c.count])
		c.count++
	} else {
		copy(c.entries[1:], c.entries[0:len(c.entries)-1])
	}
	c.entries[0] = convexEntry{tolerance: tolerance, isConvex: isConvex}
}

// IsConvex reports whether the mesh is convex at the given tolerance: an
// internal edge is reflex when the cross product of its two face normals
// points against the unit edge direction by more than tolerance, and one
// reflex edge makes the mesh non-convex (spec §4.5). Meshes with more than
// one island are never convex.
func (m *Mesh) IsConvex(tolerance float32) bool {
	if cached, ok := m.convexity.lookup(tolerance); ok {
		return cached
	}

	result := m.computeConvex(tolerance)
	m.convexity.insert(tolerance, result)
	return result
}

func (m *Mesh) computeConvex(tolerance float32) bool {
	if len(m.Islands) > 1 {
		return false
	}
	for t := 0; t < m.TriCount(); t++ {
		tri := m.TriangleAt(t)
		for e := 0; e < 3; e++ {
			nb := m.Topo[t].Neighbor[e]
			if nb < 0 || int(nb) < t {
				continue // visit each internal edge once
			}
			other := m.TriangleAt(int(nb))
			cross := rl.Vector3CrossProduct(tri.Normal, other.Normal)

			i0 := m.Indices[t*3+e]
			i1 := m.Indices[t*3+(e+1)%3]
			edgeDir := rl.Vector3Normalize(rl.Vector3Subtract(m.Vertices[i1], m.Vertices[i0]))
			if rl.Vector3DotProduct(cross, edgeDir) < -tolerance {
				return false // reflex edge
			}
		}
	}
	return true
}
