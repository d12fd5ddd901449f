package skinning

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
)

// recordingStream records every command as a line of text.
type recordingStream struct {
	log     []string
	writes  []bind_group_provider.BufferWrite
	initErr error
}

func (r *recordingStream) InitBindGroup(p bind_group_provider.BindGroupProvider) error {
	r.log = append(r.log, fmt.Sprintf("init %s shared=%v", p.Label(), p.Shared(InputBinding)))
	return r.initErr
}

func (r *recordingStream) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		r.log = append(r.log, fmt.Sprintf("write %s/%d %d", w.Provider.Label(), w.Binding, len(w.Data)))
	}
	r.writes = append(r.writes, writes...)
}

func (r *recordingStream) Transition(p bind_group_provider.BindGroupProvider, binding int, before, after ResourceState) {
	r.log = append(r.log, fmt.Sprintf("barrier %s/%d %s->%s", p.Label(), binding, before, after))
}

func (r *recordingStream) Dispatch(p bind_group_provider.BindGroupProvider, groups [3]uint32) {
	r.log = append(r.log, fmt.Sprintf("dispatch %s %v", p.Label(), groups))
}

func (r *recordingStream) take() []string {
	l := r.log
	r.log = nil
	return l
}

func mesh(name string, vertices int) model.Mesh {
	return model.Mesh{
		Name:       name,
		Vertices:   make([]model.GPUSkinVertex, vertices),
		Influences: []uint32{0},
	}
}

func expectLog(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("recorded:\n  %s\nexpected:\n  %s", strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

func TestGroupCount(t *testing.T) {
	tests := []struct {
		n    int
		want uint32
	}{
		{0, 0},
		{1, 1},
		{64, 1},
		{65, 2},
		{128, 2},
		{130, 3},
	}
	for _, tt := range tests {
		if got := GroupCount(tt.n); got != tt.want {
			t.Errorf("GroupCount(%d)=%d; expected %d", tt.n, got, tt.want)
		}
	}
}

func TestDispatchSizing(t *testing.T) {
	d := NewDispatcher(WithMeshes(mesh("body", 130)))
	s := &recordingStream{}
	if err := d.Init(s); err != nil {
		t.Fatalf("Init()=%v", err)
	}
	s.take()
	if err := d.Dispatch(s, 0); err != nil {
		t.Fatalf("Dispatch()=%v", err)
	}
	expectLog(t, s.take(), []string{
		"barrier skin/body/0/2 Undefined->UnorderedAccess",
		"dispatch skin/body/0 [3 1 1]",
	})
	if d.GroupCount(0) != 3 {
		t.Errorf("GroupCount(0)=%d; expected 3", d.GroupCount(0))
	}
}

func TestInitSharesInputVertices(t *testing.T) {
	d := NewDispatcher(WithLabel("hero"), WithMeshes(mesh("body", 2), mesh("cape", 0)))
	s := &recordingStream{}
	if err := d.Init(s); err != nil {
		t.Fatalf("Init()=%v", err)
	}
	expectLog(t, s.take(), []string{
		"init hero/body/0 shared=false",
		"init hero/body/1 shared=true",
		"init hero/cape/0 shared=false",
		"init hero/cape/1 shared=true",
		"write hero/body/0/1 128",
	})
	if got := d.OutputProvider(0, 1).BufferSize(OutputBinding); got != 64 {
		t.Errorf("output size=%d; expected 64", got)
	}
	if got := d.OutputProvider(1, 0).BufferSize(InputBinding); got != 64 {
		t.Errorf("empty mesh input size=%d; expected one vertex (64)", got)
	}
	if err := d.Init(s); err != nil || len(s.take()) != 0 {
		t.Errorf("second Init() recorded commands or failed: %v", err)
	}
}

func TestFrameBarrierSequence(t *testing.T) {
	d := NewDispatcher(WithMeshes(mesh("body", 10)))
	s := &recordingStream{}
	if err := d.Init(s); err != nil {
		t.Fatalf("Init()=%v", err)
	}
	s.take()

	d.Dispatch(s, 0)
	d.PrepareDraw(s, 0)
	expectLog(t, s.take(), []string{
		"barrier skin/body/0/2 Undefined->UnorderedAccess",
		"dispatch skin/body/0 [1 1 1]",
		"barrier skin/body/0/2 UnorderedAccess->ShaderRead",
		"barrier skin/body/1/2 Undefined->ShaderRead",
	})

	d.Dispatch(s, 1)
	d.PrepareDraw(s, 1)
	expectLog(t, s.take(), []string{
		"barrier skin/body/1/2 ShaderRead->UnorderedAccess",
		"dispatch skin/body/1 [1 1 1]",
		"barrier skin/body/1/2 UnorderedAccess->ShaderRead",
	})
	if d.State(0, 0) != StateShaderRead || d.State(0, 1) != StateShaderRead {
		t.Errorf("states=%s,%s; expected both ShaderRead", d.State(0, 0), d.State(0, 1))
	}
}

func TestSkinnedBufferBeforeBarrierPanics(t *testing.T) {
	d := NewDispatcher(WithMeshes(mesh("body", 10)))
	s := &recordingStream{}
	d.Init(s)
	d.Dispatch(s, 0)

	defer func() {
		if recover() == nil {
			t.Errorf("SkinnedBuffer() in UnorderedAccess did not panic")
		}
	}()
	d.SkinnedBuffer(0, 0)
}

func TestSkinnedBufferAfterPrepareDraw(t *testing.T) {
	d := NewDispatcher(WithMeshes(mesh("body", 10)))
	s := &recordingStream{}
	d.Init(s)
	d.Dispatch(s, 0)
	d.PrepareDraw(s, 0)
	// the recording stream allocates nothing, so the buffer is nil; only the contract is checked
	if b := d.SkinnedBuffer(0, 0); b != nil {
		t.Errorf("SkinnedBuffer()=%v; expected nil from the recording stream", b)
	}
	d.SkinnedBuffer(0, 1)
}

func TestDispatchBeforeInit(t *testing.T) {
	d := NewDispatcher(WithMeshes(mesh("body", 10)))
	if err := d.Dispatch(&recordingStream{}, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Dispatch() err=%v; expected %v", err, ErrNotInitialized)
	}
}

func TestInitError(t *testing.T) {
	boom := errors.New("out of memory")
	d := NewDispatcher(WithMeshes(mesh("body", 10)))
	if err := d.Init(&recordingStream{initErr: boom}); !errors.Is(err, boom) {
		t.Errorf("Init() err=%v; expected %v", err, boom)
	}
}

func TestBoneProviderFollowsParity(t *testing.T) {
	d := NewDispatcher(WithMeshes(mesh("body", 1)))
	if d.BoneProvider(0, 0) == d.BoneProvider(0, 1) {
		t.Errorf("BoneProvider() returned the same provider for both parities")
	}
	if d.BoneProvider(0, 2) != d.BoneProvider(0, 0) {
		t.Errorf("BoneProvider(parity 2) != BoneProvider(parity 0)")
	}
}

func TestSkinningShader(t *testing.T) {
	s, err := NewSkinningShader()
	if err != nil {
		t.Fatalf("NewSkinningShader()=%v", err)
	}
	if got := s.WorkgroupSize()[0]; got != WorkgroupSize {
		t.Errorf("kernel workgroup size=%d; expected %d", got, WorkgroupSize)
	}
	for name, want := range map[string]int{"bones": BoneBinding, "inVerts": InputBinding, "outVerts": OutputBinding} {
		if got, ok := s.BindGroupFromVarName(0, name); !ok || got != want {
			t.Errorf("binding of %s=%d; expected %d", name, got, want)
		}
	}
}

func TestStateTrackerRequire(t *testing.T) {
	tr := NewStateTracker()
	p := bind_group_provider.NewBindGroupProvider("p")
	if before := tr.Transition(p, 2, StateShaderRead); before != StateUndefined {
		t.Errorf("Transition() before=%s; expected Undefined", before)
	}
	tr.Require(p, 2, StateShaderRead)

	defer func() {
		r := recover()
		if r == nil || !strings.Contains(fmt.Sprint(r), "p binding 2 is ShaderRead") {
			t.Errorf("Require() panic=%v; expected a barrier violation", r)
		}
	}()
	tr.Require(p, 2, StateUnorderedAccess)
}
