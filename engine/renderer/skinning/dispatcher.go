package skinning

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-character/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/temporal"
	"github.com/cogentcore/webgpu/wgpu"
)

// SkinningKernelSource is the annotated WGSL source of the dual-quaternion skinning kernel.
//
//go:embed assets/skinning.wgsl
var SkinningKernelSource string

const (
	// WorkgroupSize is the number of vertices one workgroup of the skinning kernel transforms.
	WorkgroupSize = 64

	// BoneBinding is the binding of the per-mesh dual-quaternion palette.
	BoneBinding = 0
	// InputBinding is the binding of the static bind-pose vertices.
	InputBinding = 1
	// OutputBinding is the binding of the skinned output vertices.
	OutputBinding = 2
)

// ErrNotInitialized is returned when the dispatcher is used before Init.
var ErrNotInitialized = errors.New("skinning dispatcher not initialized")

// GroupCount returns the number of workgroups needed to skin vertexCount vertices.
//
// Parameters:
//   - vertexCount: the number of vertices
//
// Returns:
//   - uint32: ceil(vertexCount / WorkgroupSize)
func GroupCount(vertexCount int) uint32 {
	if vertexCount <= 0 {
		return 0
	}
	return uint32((vertexCount + WorkgroupSize - 1) / WorkgroupSize)
}

// NewSkinningShader pre-processes and parses the skinning kernel.
//
// Returns:
//   - shader.Shader: the kernel
//   - error: if the kernel source is malformed
func NewSkinningShader() (shader.Shader, error) {
	return shader.NewComputeShader("skinning", SkinningKernelSource)
}

type meshSlot struct {
	vertexCount int
	vertexData  []byte
	providers   *temporal.Pool[bind_group_provider.BindGroupProvider]
}

// dispatcher is the implementation of the Dispatcher interface.
type dispatcher struct {
	mu *sync.Mutex

	label       string
	meshes      []meshSlot
	tracker     *StateTracker
	initialized bool
}

// Dispatcher owns the per-mesh GPU resources of the skinning pass, two copies of the bone and
// output buffers each, and records the skinning dispatches and their barriers.
//
// Each mesh has one bind group provider per parity. The bone and output buffers belong to
// their parity; the input vertices are uploaded once and shared by both parities.
type Dispatcher interface {
	animator.BoneTarget

	// MeshCount returns the number of meshes.
	//
	// Returns:
	//   - int: the mesh count
	MeshCount() int

	// GroupCount returns the number of workgroups dispatched for a mesh.
	//
	// Parameters:
	//   - mesh: the mesh index
	//
	// Returns:
	//   - uint32: the workgroup count
	GroupCount(mesh int) uint32

	// Init creates the GPU resources through the stream and uploads the input vertices.
	// Calling Init again is a no-op.
	//
	// Parameters:
	//   - stream: the stream that allocates GPU resources
	//
	// Returns:
	//   - error: if a bind group could not be created
	Init(stream CommandStream) error

	// Dispatch records, for each mesh, the transition of the parity's output buffer to
	// StateUnorderedAccess followed by one kernel dispatch of GroupCount(mesh) workgroups.
	//
	// Parameters:
	//   - stream: the stream to record into
	//   - parity: the temporal parity being skinned
	//
	// Returns:
	//   - error: ErrNotInitialized before Init
	Dispatch(stream CommandStream, parity uint32) error

	// PrepareDraw records the transitions that make the parity's output readable as vertex
	// input and the other parity's output readable as history.
	//
	// Parameters:
	//   - stream: the stream to record into
	//   - parity: the temporal parity about to be drawn
	PrepareDraw(stream CommandStream, parity uint32)

	// OutputProvider returns the provider owning a mesh's buffers for a parity.
	//
	// Parameters:
	//   - mesh: the mesh index
	//   - parity: the temporal parity
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	OutputProvider(mesh int, parity uint32) bind_group_provider.BindGroupProvider

	// SkinnedBuffer returns a mesh's output buffer for drawing. It panics if the buffer has not
	// been transitioned to StateShaderRead since it was last written.
	//
	// Parameters:
	//   - mesh: the mesh index
	//   - parity: the temporal parity
	//
	// Returns:
	//   - *wgpu.Buffer: the output buffer
	SkinnedBuffer(mesh int, parity uint32) *wgpu.Buffer

	// State returns the tracked state of a mesh's output buffer.
	//
	// Parameters:
	//   - mesh: the mesh index
	//   - parity: the temporal parity
	//
	// Returns:
	//   - ResourceState: the tracked state
	State(mesh int, parity uint32) ResourceState

	// Release releases every provider's GPU resources.
	Release()
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher with the specified options applied.
//
// Parameters:
//   - options: a variadic list of DispatcherBuilderOption functions
//
// Returns:
//   - Dispatcher: the dispatcher, not yet initialized
func NewDispatcher(options ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcher{
		mu:      &sync.Mutex{},
		label:   "skin",
		tracker: NewStateTracker(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *dispatcher) MeshCount() int {
	return len(d.meshes)
}

func (d *dispatcher) GroupCount(mesh int) uint32 {
	return GroupCount(d.meshes[mesh].vertexCount)
}

func (d *dispatcher) BoneProvider(mesh int, parity uint32) bind_group_provider.BindGroupProvider {
	return d.meshes[mesh].providers.Slot(parity)
}

func (d *dispatcher) OutputProvider(mesh int, parity uint32) bind_group_provider.BindGroupProvider {
	return d.meshes[mesh].providers.Slot(parity)
}

func (d *dispatcher) Init(stream CommandStream) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}
	uploads := make([]bind_group_provider.BufferWrite, 0, len(d.meshes))
	for _, m := range d.meshes {
		owner := m.providers.Slot(0)
		if err := stream.InitBindGroup(owner); err != nil {
			return fmt.Errorf("init %s: %w", owner.Label(), err)
		}
		for p := uint32(1); p < temporal.FrameCount; p++ {
			prov := m.providers.Slot(p)
			prov.SetSharedBuffer(InputBinding, owner.Buffer(InputBinding))
			if err := stream.InitBindGroup(prov); err != nil {
				return fmt.Errorf("init %s: %w", prov.Label(), err)
			}
		}
		if len(m.vertexData) > 0 {
			uploads = append(uploads, bind_group_provider.BufferWrite{
				Provider: owner,
				Binding:  InputBinding,
				Data:     m.vertexData,
			})
		}
	}
	stream.WriteBuffers(uploads)
	d.initialized = true
	return nil
}

func (d *dispatcher) Dispatch(stream CommandStream, parity uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	for _, m := range d.meshes {
		if m.vertexCount == 0 {
			continue
		}
		out := m.providers.Slot(parity)
		d.transition(stream, out, StateUnorderedAccess)
		stream.Dispatch(out, [3]uint32{GroupCount(m.vertexCount), 1, 1})
	}
	return nil
}

func (d *dispatcher) PrepareDraw(stream CommandStream, parity uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, m := range d.meshes {
		d.transition(stream, m.providers.Slot(parity), StateShaderRead)
		d.transition(stream, m.providers.Slot(parity+1), StateShaderRead)
	}
}

// transition records a barrier only when the buffer's tracked state changes.
func (d *dispatcher) transition(stream CommandStream, p bind_group_provider.BindGroupProvider, after ResourceState) {
	if before := d.tracker.Transition(p, OutputBinding, after); before != after {
		stream.Transition(p, OutputBinding, before, after)
	}
}

func (d *dispatcher) SkinnedBuffer(mesh int, parity uint32) *wgpu.Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.meshes[mesh].providers.Slot(parity)
	d.tracker.Require(p, OutputBinding, StateShaderRead)
	return p.Buffer(OutputBinding)
}

func (d *dispatcher) State(mesh int, parity uint32) ResourceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracker.State(d.meshes[mesh].providers.Slot(parity), OutputBinding)
}

func (d *dispatcher) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, m := range d.meshes {
		m.providers.Each(func(_ uint32, p bind_group_provider.BindGroupProvider) {
			p.Release()
		})
	}
	d.tracker = NewStateTracker()
	d.initialized = false
}
