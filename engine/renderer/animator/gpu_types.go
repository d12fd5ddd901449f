package animator

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUDualQuatSource is the canonical WGSL definition of the DualQuat struct.
// Matches GPUDualQuat layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/dual_quat.wgsl
var GPUDualQuatSource string

// GPUDualQuat is the GPU-aligned representation of one bone of a skinning palette.
// Size: 32 bytes (std430 aligned).
type GPUDualQuat struct {
	Real [4]float32 // offset  0: rotation quaternion (x, y, z, w) (16 bytes)
	Dual [4]float32 // offset 16: dual part encoding the translation (16 bytes)
}

// Size returns the size of the GPUDualQuat struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUDualQuat) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDualQuat struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUDualQuat) Marshal() []byte {
	buf := make([]byte, 32)
	g.marshalInto(buf)
	return buf
}

func (g *GPUDualQuat) marshalInto(buf []byte) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Real[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Dual[i]))
	}
}
