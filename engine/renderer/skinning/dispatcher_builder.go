package skinning

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/temporal"
)

// DispatcherBuilderOption is a functional option for configuring a Dispatcher during construction.
type DispatcherBuilderOption func(*dispatcher)

// WithLabel sets the prefix of every provider label. It must precede WithMeshes.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the label option to a dispatcher
func WithLabel(label string) DispatcherBuilderOption {
	return func(d *dispatcher) {
		d.label = label
	}
}

// WithMeshes registers the skinned meshes. Each mesh gets one provider per parity, sized for
// its palette, its input vertices and its output vertices.
//
// Parameters:
//   - meshes: the meshes to skin
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the meshes option to a dispatcher
func WithMeshes(meshes ...model.Mesh) DispatcherBuilderOption {
	return func(d *dispatcher) {
		for _, m := range meshes {
			n := int(m.VertexCount())
			// zero-sized storage buffers cannot be bound
			bones := uint64(max(len(m.Influences), 1) * (&animator.GPUDualQuat{}).Size())
			in := uint64(max(n, 1) * (&model.GPUSkinVertex{}).Size())
			out := uint64(max(n, 1) * (&model.GPUSkinnedVertex{}).Size())

			slot := meshSlot{
				vertexCount: n,
				vertexData:  model.MarshalVertices(m.Vertices),
			}
			slot.providers = temporal.NewPool(func(parity uint32) bind_group_provider.BindGroupProvider {
				return bind_group_provider.NewBindGroupProvider(
					fmt.Sprintf("%s/%s/%d", d.label, m.Name, parity),
					bind_group_provider.WithBufferSize(BoneBinding, bones),
					bind_group_provider.WithBufferSize(InputBinding, in),
					bind_group_provider.WithBufferSize(OutputBinding, out),
				)
			})
			d.meshes = append(d.meshes, slot)
		}
	}
}
