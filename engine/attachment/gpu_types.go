package attachment

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPULinkMatricesSource is the canonical WGSL definition of the LinkMatrices struct.
//
//go:embed assets/link_matrices.wgsl
var GPULinkMatricesSource string

// GPULinkMatrices is the per-link constant block a renderer binds when drawing an attached mesh.
// Matrices are column-major, matching WGSL mat4x4<f32>.
type GPULinkMatrices struct {
	WorldViewProj     mgl32.Mat4
	World             mgl32.Mat4
	Normal            mgl32.Mat4
	ShadowProj        mgl32.Mat4
	WorldViewProjPrev mgl32.Mat4
}

// Size returns the byte size of the struct.
//
// Returns:
//   - int: the size in bytes
func (g *GPULinkMatrices) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal returns the struct as bytes ready for a uniform buffer write.
//
// Returns:
//   - []byte: a copy of the struct bytes
func (g *GPULinkMatrices) Marshal() []byte {
	view := common.SliceToBytes([]mgl32.Mat4{g.WorldViewProj, g.World, g.Normal, g.ShadowProj, g.WorldViewProjPrev})
	out := make([]byte, len(view))
	copy(out, view)
	return out
}
