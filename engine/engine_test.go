package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-character/engine/camera"
	"github.com/Carmen-Shannon/oxy-character/engine/character"
	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/profiler"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/skinning"
	"github.com/Carmen-Shannon/oxy-character/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

type recordingStream struct {
	log      []string
	beginErr error
}

func (r *recordingStream) InitBindGroup(p bind_group_provider.BindGroupProvider) error {
	return nil
}

func (r *recordingStream) WriteBuffers(writes []bind_group_provider.BufferWrite) {}

func (r *recordingStream) Transition(p bind_group_provider.BindGroupProvider, binding int, before, after skinning.ResourceState) {
	r.log = append(r.log, fmt.Sprintf("barrier %s %s->%s", p.Label(), before, after))
}

func (r *recordingStream) Dispatch(p bind_group_provider.BindGroupProvider, groups [3]uint32) {
	r.log = append(r.log, "dispatch "+p.Label())
}

func (r *recordingStream) BeginFrame() error {
	if r.beginErr != nil {
		return r.beginErr
	}
	r.log = append(r.log, "begin")
	return nil
}

func (r *recordingStream) EndFrame() {
	r.log = append(r.log, "end")
}

// bob is a root with one child moving 1 unit along Y per key.
func bob(t *testing.T, label string, numKeys uint32) character.Character {
	t.Helper()
	keys := make([]model.Keyframe, numKeys)
	for k := range keys {
		keys[k] = model.Keyframe{Translation: mgl32.Vec3{0, float32(k), 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
	}
	m := model.NewModel(
		model.WithName("bob"),
		model.WithFrames([]model.Frame{
			{Name: "root", Parent: model.Invalid, Child: 1, Sibling: model.Invalid, Matrix: mgl32.Ident4(), Track: model.Invalid},
			{Name: "head", Parent: 0, Child: model.Invalid, Sibling: model.Invalid, Matrix: mgl32.Ident4(), Track: 0},
		}),
		model.WithAnimation(&model.Animation{FPS: 4, NumKeys: numKeys, Tracks: [][]model.Keyframe{keys}}),
		model.WithMeshes(model.Mesh{Name: "body", Vertices: make([]model.GPUSkinVertex, 2), Influences: []uint32{1}}),
		model.WithLinks(model.MeshLink{BoneName: "head", Mesh: "hat"}),
	)
	c, err := character.NewCharacter(m, character.WithLabel(label))
	if err != nil {
		t.Fatalf("NewCharacter()=%v", err)
	}
	return c
}

func TestStepAdvancesFixedTick(t *testing.T) {
	var ticks []float64
	e := NewEngine(WithTickRate(4))
	e.SetTickCallback(func(t float64, dt float32) {
		ticks = append(ticks, t)
		if dt != 0.25 {
			panic(fmt.Sprintf("dt=%v", dt))
		}
	})
	for range 3 {
		if err := e.Step(); err != nil {
			t.Fatalf("Step()=%v", err)
		}
	}
	want := []float64{0, 0.25, 0.5}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("tick %d t=%v; expected %v", i, ticks[i], want[i])
		}
	}
	if e.Frames() != 3 || e.Time() != 0.75 {
		t.Errorf("Frames()=%d Time()=%v; expected 3, 0.75", e.Frames(), e.Time())
	}
}

func TestStepOrdersScenesInOneFrame(t *testing.T) {
	stream := &recordingStream{}
	back := scene.NewScene("back", scene.WithCharacters(bob(t, "b", 9)), scene.WithComputeWorkers(1))
	front := scene.NewScene("front", scene.WithCharacters(bob(t, "f", 9)), scene.WithComputeWorkers(1))
	hidden := scene.NewScene("hidden", scene.WithCharacters(bob(t, "h", 9)), scene.WithActive(false), scene.WithComputeWorkers(1))

	e := NewEngine(WithStream(stream), WithScene(2, front), WithScene(1, back), WithScene(0, hidden), WithTickRate(4))
	if err := e.Step(); err != nil {
		t.Fatalf("Step()=%v", err)
	}

	want := []string{
		"begin",
		"barrier b/body/1 Undefined->UnorderedAccess",
		"dispatch b/body/1",
		"barrier f/body/1 Undefined->UnorderedAccess",
		"dispatch f/body/1",
		"barrier b/body/1 UnorderedAccess->ShaderRead",
		"barrier b/body/0 Undefined->ShaderRead",
		"barrier f/body/1 UnorderedAccess->ShaderRead",
		"barrier f/body/0 Undefined->ShaderRead",
		"end",
	}
	if strings.Join(stream.log, "\n") != strings.Join(want, "\n") {
		t.Errorf("stream log=\n%s\nexpected\n%s", strings.Join(stream.log, "\n"), strings.Join(want, "\n"))
	}
}

func TestStepFeedsCameraAndTime(t *testing.T) {
	c := bob(t, "c", 9)
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(3))))
	e := NewEngine(
		WithCamera(cam),
		WithTickRate(4),
		WithScene(0, scene.NewScene("s", scene.WithCharacters(c), scene.WithComputeWorkers(1))),
	)
	for range 3 {
		if err := e.Step(); err != nil {
			t.Fatalf("Step()=%v", err)
		}
	}
	// The third frame plays t=0.5 at 4 fps: tick 2, key 3.
	if got := c.FrameWorldMatrix(1).Col(3).Y(); got != 3 {
		t.Errorf("head y=%v; expected 3", got)
	}
	want := cam.ViewProjectionMatrix().Mul4(c.WorldMatrix()).Mul4(c.SkinningMatrix(1))
	if got := c.Binder().WorldViewProj(0); !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("hat WorldViewProj=%v; expected %v", got, want)
	}
}

func TestStepJoinsSceneErrors(t *testing.T) {
	e := NewEngine(WithScene(0, scene.NewScene("bad", scene.WithCharacters(bob(t, "x", 1)), scene.WithComputeWorkers(1))))
	if err := e.Step(); err == nil {
		t.Error("Step() with a degenerate clip returned nil")
	}
	if e.Frames() != 1 {
		t.Errorf("Frames()=%d; expected the failed frame to count", e.Frames())
	}
}

func TestRunStopsOnBeginFrameError(t *testing.T) {
	boom := errors.New("device lost")
	e := NewEngine(WithStream(&recordingStream{beginErr: boom}))
	if err := e.Run(10); !errors.Is(err, boom) {
		t.Errorf("Run() err=%v; expected %v", err, boom)
	}
}

func TestRunFrameCountAndQuit(t *testing.T) {
	e := NewEngine()
	if err := e.Run(5); err != nil {
		t.Fatalf("Run(5)=%v", err)
	}
	if e.Frames() != 5 {
		t.Errorf("Frames()=%d; expected 5", e.Frames())
	}

	e = NewEngine(WithRenderFrameLimit(1000))
	e.SetTickCallback(func(t float64, dt float32) {
		if t >= 0.1 {
			e.Quit()
		}
	})
	done := make(chan error, 1)
	go func() { done <- e.Run(0) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run(0)=%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run(0) did not stop after Quit")
	}
	e.Quit()
}

func TestRunRecoversPanic(t *testing.T) {
	e := NewEngine()
	e.SetTickCallback(func(float64, float32) { panic("barrier") })
	if err := e.Run(3); err == nil || !strings.Contains(err.Error(), "barrier") {
		t.Errorf("Run() err=%v; expected the recovered panic", err)
	}
}

func TestProfilerTicksWhenEnabled(t *testing.T) {
	stats := profiler.NewFrameStats(time.Now(), profiler.WithLogger(nil))
	e := NewEngine(WithFrameStats(stats), WithProfiling(true))
	_ = e.Step()
	e.DisableProfiler()
	_ = e.Step()
	if stats.TotalFrames() != 1 {
		t.Errorf("TotalFrames()=%d; expected 1", stats.TotalFrames())
	}
	if math.IsNaN(stats.FPS()) {
		t.Error("FPS() is NaN")
	}
}
