package scene

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-character/engine/animation"
	"github.com/Carmen-Shannon/oxy-character/engine/character"
	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/skinning"
	"github.com/go-gl/mathgl/mgl32"
)

type recordingStream struct {
	mu  sync.Mutex
	log []string
}

func (r *recordingStream) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, fmt.Sprintf(format, args...))
}

func (r *recordingStream) InitBindGroup(p bind_group_provider.BindGroupProvider) error {
	r.record("init %s", p.Label())
	return nil
}

func (r *recordingStream) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		r.record("write %s/%d", w.Provider.Label(), w.Binding)
	}
}

func (r *recordingStream) Transition(p bind_group_provider.BindGroupProvider, binding int, before, after skinning.ResourceState) {
	r.record("barrier %s/%d %s->%s", p.Label(), binding, before, after)
}

func (r *recordingStream) Dispatch(p bind_group_provider.BindGroupProvider, groups [3]uint32) {
	r.record("dispatch %s", p.Label())
}

func (r *recordingStream) dispatches() []string {
	var out []string
	for _, l := range r.log {
		if len(l) > 8 && l[:8] == "dispatch" {
			out = append(out, l)
		}
	}
	return out
}

// walker is a root with one child moving 1 unit along X per key.
func walker(numKeys uint32) model.Model {
	keys := make([]model.Keyframe, numKeys)
	for k := range keys {
		keys[k] = model.Keyframe{Translation: mgl32.Vec3{float32(k), 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
	}
	return model.NewModel(
		model.WithName("walker"),
		model.WithFrames([]model.Frame{
			{Name: "root", Parent: model.Invalid, Child: 1, Sibling: model.Invalid, Matrix: mgl32.Ident4(), Track: model.Invalid},
			{Name: "pelvis", Parent: 0, Child: model.Invalid, Sibling: model.Invalid, Matrix: mgl32.Ident4(), Track: 0},
		}),
		model.WithAnimation(&model.Animation{FPS: 1, NumKeys: numKeys, Tracks: [][]model.Keyframe{keys}}),
		model.WithMeshes(model.Mesh{Name: "body", Vertices: make([]model.GPUSkinVertex, 4), Influences: []uint32{1}}),
	)
}

func crowd(t *testing.T, n int, numKeys uint32) (Scene, []character.Character) {
	t.Helper()
	chars := make([]character.Character, n)
	for i := range chars {
		c, err := character.NewCharacter(walker(numKeys), character.WithLabel(fmt.Sprintf("w%d", i)))
		if err != nil {
			t.Fatalf("NewCharacter()=%v", err)
		}
		chars[i] = c
	}
	return NewScene("crowd", WithCharacters(chars...), WithComputeWorkers(3)), chars
}

func TestFrameMoveEvaluatesEveryCharacter(t *testing.T) {
	s, chars := crowd(t, 12, 11)
	if err := s.FrameMove(2.5, mgl32.Ident4(), nil, false); err != nil {
		t.Fatalf("FrameMove()=%v", err)
	}
	for i, c := range chars {
		if c.Parity() != 1 {
			t.Errorf("character %d Parity()=%d; expected 1", i, c.Parity())
		}
		// 2.5 seconds at 1 fps is tick 2, which selects key 3.
		if got := c.FrameWorldMatrix(1).Col(3).X(); got != 3 {
			t.Errorf("character %d pelvis x=%v; expected 3", i, got)
		}
	}
}

func TestTimeOffset(t *testing.T) {
	s := NewScene("offset", WithComputeWorkers(1))
	c, err := character.NewCharacter(walker(11))
	if err != nil {
		t.Fatalf("NewCharacter()=%v", err)
	}
	s.Add(c, 3)
	if err := s.FrameMove(1.5, mgl32.Ident4(), nil, false); err != nil {
		t.Fatalf("FrameMove()=%v", err)
	}
	// 1.5 + 3 seconds at 1 fps selects key 5.
	if got := c.FrameWorldMatrix(1).Col(3).X(); got != 5 {
		t.Errorf("pelvis x=%v; expected 5", got)
	}
}

func TestSkinningIsSequentialInInsertionOrder(t *testing.T) {
	s, _ := crowd(t, 3, 11)
	stream := &recordingStream{}
	if err := s.FrameMove(1, mgl32.Ident4(), nil, false); err != nil {
		t.Fatalf("FrameMove()=%v", err)
	}
	if err := s.Skinning(stream); err != nil {
		t.Fatalf("Skinning()=%v", err)
	}
	want := []string{"dispatch w0/body/1", "dispatch w1/body/1", "dispatch w2/body/1"}
	got := stream.dispatches()
	if len(got) != len(want) {
		t.Fatalf("dispatches=%v; expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatch %d=%q; expected %q", i, got[i], want[i])
		}
	}

	s.PrepareDraw(stream)
	for i := range 3 {
		c := s.Get(uint64(i + 1))
		if c == nil {
			t.Fatalf("Get(%d)=nil", i+1)
		}
		if st := c.Dispatcher().State(0, 1); st != skinning.StateShaderRead {
			t.Errorf("character %d output state=%v; expected ShaderRead", i, st)
		}
	}
}

func TestFrameMoveJoinsErrors(t *testing.T) {
	s, chars := crowd(t, 2, 11)
	bad, err := character.NewCharacter(walker(1), character.WithLabel("bad"))
	if err != nil {
		t.Fatalf("NewCharacter()=%v", err)
	}
	s.Add(bad, 0)

	err = s.FrameMove(1, mgl32.Ident4(), nil, false)
	if !errors.Is(err, animation.ErrDegenerateKeyCount) {
		t.Errorf("FrameMove() err=%v; expected %v", err, animation.ErrDegenerateKeyCount)
	}
	for i, c := range chars {
		if c.Parity() != 1 {
			t.Errorf("healthy character %d Parity()=%d; expected 1", i, c.Parity())
		}
	}
}

func TestInactiveSceneSkipsWork(t *testing.T) {
	s, chars := crowd(t, 2, 11)
	s.SetActive(false)
	stream := &recordingStream{}
	if err := s.FrameMove(1, mgl32.Ident4(), nil, false); err != nil {
		t.Errorf("FrameMove()=%v; expected nil", err)
	}
	if err := s.Skinning(stream); err != nil {
		t.Errorf("Skinning()=%v; expected nil", err)
	}
	if chars[0].Parity() != 0 || len(stream.log) != 0 {
		t.Errorf("inactive scene did work: parity %d, %d commands", chars[0].Parity(), len(stream.log))
	}
}

func TestRegistry(t *testing.T) {
	s, chars := crowd(t, 3, 11)
	if s.Count() != 3 {
		t.Fatalf("Count()=%d; expected 3", s.Count())
	}
	s.Remove(2)
	if s.Get(2) != nil || s.Count() != 2 {
		t.Errorf("after Remove(2): Get=%v Count=%d; expected nil, 2", s.Get(2), s.Count())
	}
	if s.Get(3) != chars[2] {
		t.Error("Get(3) did not return the third character")
	}
	if id := s.Add(chars[1], 0); id != 4 {
		t.Errorf("Add()=%d; expected 4", id)
	}
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Count() after Clear=%d; expected 0", s.Count())
	}
	if s.Name() != "crowd" {
		t.Errorf("Name()=%q; expected crowd", s.Name())
	}
}
