package bmd

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Per-record sizes of the mesh sections, which the skeleton reader skips.
const (
	vertexSize   = 16 // node:i16, pad:i16, x,y,z:f32
	normalSize   = 20 // node:i16, pad:i16, nx,ny,nz:f32, bind:i16, pad:i16
	texCoordSize = 8  // u,v:f32
	triangleSize = 64
	nameSize     = 32

	maxMeshes = 100
	maxBones  = 4096
)

// ParseFile reads a BMD file and returns its skeleton.
func ParseFile(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return m, nil
}

// Parse decodes the skeleton of an in-memory BMD file. Versions 10
// (plain) and 12 (XOR) are supported.
func Parse(raw []byte) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("bmd: invalid header")
	}

	version := raw[3]
	var data []byte

	switch version {
	case 12:
		if len(raw) < 8 {
			return nil, fmt.Errorf("bmd: truncated v12 header")
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, fmt.Errorf("bmd: truncated v12 data")
		}
		data = decryptXOR(raw[8 : 8+size])
	case 15:
		return nil, fmt.Errorf("bmd: version 15 (LEA-256) is not supported")
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	m, err := r.parse()
	if err != nil {
		return nil, err
	}
	m.Version = version
	return m, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) skip(n int) {
	r.off = min(r.off+n, len(r.data))
}

func (r *reader) eof() bool {
	return r.off >= len(r.data)
}

func (r *reader) readStr(n int) string {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		return ""
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v
}

func (r *reader) readU16() uint16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readF32() float32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *reader) readByte() byte {
	if r.off >= len(r.data) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) readVec3() [3]float64 {
	return [3]float64{float64(r.readF32()), float64(r.readF32()), float64(r.readF32())}
}

func (r *reader) parse() (*Model, error) {
	name := r.readStr(nameSize)
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())

	if meshCount > maxMeshes {
		return nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}
	if boneCount > maxBones {
		return nil, fmt.Errorf("bmd: invalid bone count %d", boneCount)
	}

	for i := 0; i < meshCount; i++ {
		nv := max(int(r.readI16()), 0)
		nn := max(int(r.readI16()), 0)
		ntc := max(int(r.readI16()), 0)
		nt := max(int(r.readI16()), 0)
		_ = r.readI16() // texture index

		r.skip(nv*vertexSize + nn*normalSize + ntc*texCoordSize + nt*triangleSize)
		_ = r.readStr(nameSize) // texture path
	}

	// Action headers: key count and optional locked positions.
	actionKeys := make([]int, actionCount)
	for a := 0; a < actionCount; a++ {
		numKeys := max(int(r.readI16()), 0)
		if r.readByte() > 0 {
			r.skip(numKeys * 12)
		}
		actionKeys[a] = numKeys
	}

	bones := make([]Bone, 0, boneCount)
	for b := 0; b < boneCount; b++ {
		if r.eof() {
			return nil, fmt.Errorf("bmd: truncated at bone %d of %d", b, boneCount)
		}
		if r.readByte() > 0 {
			bones = append(bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		bone := Bone{
			Name:   r.readStr(nameSize),
			Parent: int(r.readI16()),
		}
		for a, numKeys := range actionKeys {
			// Positions then rotations, numKeys × (x, y, z) float32 each.
			for k := 0; k < numKeys; k++ {
				p := r.readVec3()
				if a == 0 && k == 0 {
					bone.BindPosition = p
				}
			}
			for k := 0; k < numKeys; k++ {
				rot := r.readVec3()
				if a == 0 && k == 0 {
					bone.BindRotation = rot
				}
			}
		}
		bones = append(bones, bone)
	}

	return &Model{Name: name, Bones: bones}, nil
}
