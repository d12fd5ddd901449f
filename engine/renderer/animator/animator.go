package animator

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// SkinningSource supplies the per-frame skinning matrices a palette is built from.
// pose.Evaluator satisfies it.
type SkinningSource interface {
	SkinningMatrix(frame uint32) mgl32.Mat4
}

// BoneTarget resolves the provider that owns a mesh's bone buffer for a given temporal parity.
type BoneTarget interface {
	BoneProvider(mesh int, parity uint32) bind_group_provider.BindGroupProvider
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	influences [][]uint32
	palettes   [][]GPUDualQuat
	staging    [][]byte

	target      BoneTarget
	boneBinding int

	stagedWriteData []bind_group_provider.BufferWrite
}

// Animator converts a posed skeleton into per-mesh dual-quaternion bone palettes and
// stages the GPU buffer writes that upload them.
//
// Each mesh has its own palette, ordered like the mesh's influence list, so vertex bone
// indices address the palette directly. Writes always target the bone buffer of the parity
// passed to Update; the buffer of the other parity is never touched, so the GPU may still be
// reading it for the previous frame.
type Animator interface {
	// MeshCount returns the number of meshes with a palette.
	//
	// Returns:
	//   - int: the mesh count
	MeshCount() int

	// PaletteSize returns the number of bones in a mesh's palette.
	//
	// Parameters:
	//   - mesh: the mesh index
	//
	// Returns:
	//   - int: the palette length
	PaletteSize(mesh int) int

	// Palette returns the CPU copy of a mesh's palette from the last Update.
	// The slice is owned by the animator and is overwritten by the next Update.
	//
	// Parameters:
	//   - mesh: the mesh index
	//
	// Returns:
	//   - []GPUDualQuat: the palette
	Palette(mesh int) []GPUDualQuat

	// Update rebuilds every palette from the source's skinning matrices and stages one write per mesh
	// into the bone buffer of the given parity. Writes staged earlier and not yet drained are superseded.
	// Nothing is staged when no BoneTarget is configured.
	//
	// Parameters:
	//   - source: the pose to read skinning matrices from
	//   - parity: the temporal slot to write into
	Update(source SkinningSource, parity uint32)

	// StagedWriteData drains the writes staged by Update.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the staged writes; valid until the next Update
	StagedWriteData() []bind_group_provider.BufferWrite

	// BoneBinding returns the binding index of the bone buffer on each mesh provider.
	//
	// Returns:
	//   - int: the binding index
	BoneBinding() int
}

var _ Animator = &animator{}

// NewAnimator creates an Animator with the specified options applied.
//
// Parameters:
//   - options: a variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: the configured animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:              &sync.Mutex{},
		stagedWriteData: make([]bind_group_provider.BufferWrite, 0, 4),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) MeshCount() int {
	return len(a.influences)
}

func (a *animator) PaletteSize(mesh int) int {
	return len(a.influences[mesh])
}

func (a *animator) Palette(mesh int) []GPUDualQuat {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.palettes[mesh]
}

func (a *animator) BoneBinding() int {
	return a.boneBinding
}

func (a *animator) Update(source SkinningSource, parity uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stagedWriteData = a.stagedWriteData[:0]

	for m, influences := range a.influences {
		palette := a.palettes[m]
		buf := a.staging[m]
		for i, frame := range influences {
			palette[i] = FromMatrix(source.SkinningMatrix(frame)).GPU()
			palette[i].marshalInto(buf[i*32:])
		}

		if a.target == nil || len(buf) == 0 {
			continue
		}
		a.stagedWriteData = append(a.stagedWriteData, bind_group_provider.BufferWrite{
			Provider: a.target.BoneProvider(m, parity),
			Binding:  a.boneBinding,
			Offset:   0,
			Data:     buf,
		})
	}
}

func (a *animator) StagedWriteData() []bind_group_provider.BufferWrite {
	a.mu.Lock()
	defer a.mu.Unlock()
	w := a.stagedWriteData
	a.stagedWriteData = a.stagedWriteData[:0]
	return w
}
