package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSkinVertexSource is the canonical WGSL definition of the SkinVertex and SkinnedVertex structs.
// Matches GPUSkinVertex (64 bytes) and GPUSkinnedVertex (32 bytes) exactly.
//
//go:embed assets/skin_vertex.wgsl
var GPUSkinVertexSource string

// GPUSkinVertex is the GPU-aligned static input vertex of a skinned mesh.
// Position and normal are stored as scalar triples so no vec3 padding is introduced.
// Size: 64 bytes (std430 aligned).
type GPUSkinVertex struct {
	Position    [3]float32 // offset  0: bind-space position (12 bytes)
	Normal      [3]float32 // offset 12: bind-space normal (12 bytes)
	TexCoord    [2]float32 // offset 24: UV texture coordinate (8 bytes)
	BoneIndices [4]uint32  // offset 32: indices into the mesh's influence palette (16 bytes)
	BoneWeights [4]float32 // offset 48: blend weights, expected to sum to 1.0 (16 bytes)
}

// Size returns the size of the GPUSkinVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkinVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkinVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUSkinVertex) Marshal() []byte {
	buf := make([]byte, 64)
	putFloats(buf[0:], g.Position[:])
	putFloats(buf[12:], g.Normal[:])
	putFloats(buf[24:], g.TexCoord[:])
	for i, b := range g.BoneIndices {
		binary.LittleEndian.PutUint32(buf[32+i*4:], b)
	}
	putFloats(buf[48:], g.BoneWeights[:])
	return buf
}

// GPUSkinnedVertex is the GPU-aligned output of the skinning pass, consumed as vertex input by the renderer.
// Size: 32 bytes.
type GPUSkinnedVertex struct {
	Position [3]float32 // offset  0: skinned model-space position (12 bytes)
	Normal   [3]float32 // offset 12: skinned model-space normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the GPUSkinnedVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkinnedVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalVertices serializes a mesh's input vertices into one contiguous upload buffer.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices)*64 bytes
func MarshalVertices(vertices []GPUSkinVertex) []byte {
	out := make([]byte, 0, len(vertices)*64)
	for i := range vertices {
		out = append(out, vertices[i].Marshal()...)
	}
	return out
}

func putFloats(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
