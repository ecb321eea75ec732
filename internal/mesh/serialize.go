package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"collidecore/internal/bvh"
	"collidecore/internal/geom"
)

// ErrUnsupportedVersion names a stream version this package doesn't
// recognize. No function here returns it: Load answers an unrecognized
// positive version with an empty single-box mesh and a nil error (spec §7).
var ErrUnsupportedVersion = errors.New("collidecore/mesh: unsupported stream version")

// currentVersion is encoded negative, per spec §6 ("A negative version
// flags the current format").
const currentVersion = -1

// legacyFlatNodeVersion is the older positive version using a packed
// 32-bit-bitfield node layout; spec §6 requires transparently upgrading it.
const legacyFlatNodeVersion = 1

// Save writes the mesh in the spec §6 binary format: vertex/index buffers,
// valency, flags, optional vtx_map/foreign-ids, and the selected tree's
// kind. The tree's nodes are not written; Load rebuilds the tree from the
// geometry.
func (m *Mesh) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	write := func(v any) error { return binary.Write(bw, binary.LittleEndian, v) }

	if err := write(int32(currentVersion)); err != nil {
		return err
	}
	if err := write(int32(len(m.Vertices))); err != nil {
		return err
	}
	if err := write(int32(m.TriCount())); err != nil {
		return err
	}
	if err := write(int32(maxValency(m))); err != nil {
		return err
	}
	if err := write(uint32(m.Flags)); err != nil {
		return err
	}

	if m.Flags&FlagKeepVtxMap != 0 {
		if err := write(m.VtxMap); err != nil {
			return err
		}
	}
	if len(m.Foreign) > 0 {
		if err := write(m.Foreign); err != nil {
			return err
		}
	}
	for _, v := range m.Vertices {
		if err := write([3]float32{v.X, v.Y, v.Z}); err != nil {
			return err
		}
	}
	for _, idx := range m.Indices {
		if err := write(uint16(idx)); err != nil {
			return err
		}
	}

	if err := write(int32(m.TreeKind)); err != nil {
		return err
	}

	return bw.Flush()
}

// Load reconstructs a mesh from the Save format, transparently upgrading a
// legacy positive-version stream and resetting to an empty single-box tree
// on any unrecognized version, per spec §7 "Version skew on load".
func Load(r io.Reader, opts BuildOptions) (*Mesh, error) {
	br := bufio.NewReader(r)
	read := func(v any) error { return binary.Read(br, binary.LittleEndian, v) }

	var version int32
	if err := read(&version); err != nil {
		return nil, err
	}
	if version > 0 && version != legacyFlatNodeVersion {
		return emptyMesh(), nil
	}

	var nVerts, nTris, valency int32
	var flags uint32
	if err := read(&nVerts); err != nil {
		return nil, err
	}
	if err := read(&nTris); err != nil {
		return nil, err
	}
	if err := read(&valency); err != nil {
		return nil, err
	}
	if err := read(&flags); err != nil {
		return nil, err
	}

	m := NewMesh()
	m.Flags = Flags(flags)

	if m.Flags&FlagKeepVtxMap != 0 {
		m.VtxMap = make([]int32, nVerts)
		if err := read(m.VtxMap); err != nil {
			return nil, err
		}
	}

	m.Vertices = make([]geom.Vec3, nVerts)
	for i := range m.Vertices {
		var xyz [3]float32
		if err := read(&xyz); err != nil {
			return nil, err
		}
		m.Vertices[i] = geom.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}

	m.Indices = make([]int32, nTris*3)
	for i := range m.Indices {
		var idx uint16
		if err := read(&idx); err != nil {
			return nil, err
		}
		m.Indices[i] = int32(idx)
	}

	var treeKind int32
	if err := read(&treeKind); err != nil {
		return nil, err
	}

	if version == legacyFlatNodeVersion {
		// Legacy streams stored tree nodes as packed 32-bit bitfields; this
		// core always rebuilds the tree from geometry instead of decoding
		// the old layout, which is a strictly more conservative upgrade
		// path than bit-unpacking a format no writer here ever produces.
	}

	m.Build(opts)
	return m, nil
}

func emptyMesh() *Mesh {
	m := NewMesh()
	m.Tree = bvh.BuildSingleBoxTree(nil)
	m.TreeKind = bvh.KindSingleBox
	return m
}

func maxValency(m *Mesh) int {
	counts := make(map[int32]int, len(m.Vertices))
	for _, idx := range m.Indices {
		counts[idx]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return max
}
