package skinning

import (
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
)

// CommandStream is the in-order GPU command stream the skinning pass records into.
// Commands take effect in the order they are recorded.
type CommandStream interface {
	// InitBindGroup creates the GPU buffers a provider is missing and its bind group.
	// Buffers already set on the provider, shared ones included, are bound as they are.
	//
	// Parameters:
	//   - provider: the provider to initialize, with its buffer sizes recorded
	//
	// Returns:
	//   - error: if a GPU object could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider) error

	// WriteBuffers uploads CPU data into provider buffers.
	//
	// Parameters:
	//   - writes: the writes to record
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// Transition records a resource state transition for a buffer.
	//
	// Parameters:
	//   - provider: the provider owning the buffer
	//   - binding: the buffer's binding index
	//   - before: the state the buffer is in
	//   - after: the state the buffer must be in for the next access
	Transition(provider bind_group_provider.BindGroupProvider, binding int, before, after ResourceState)

	// Dispatch records one skinning kernel invocation over the provider's bind group.
	//
	// Parameters:
	//   - provider: the provider bound at group 0
	//   - workGroupCount: the number of workgroups in x, y and z
	Dispatch(provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32)
}
