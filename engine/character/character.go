package character

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/Carmen-Shannon/oxy-character/engine/animation"
	"github.com/Carmen-Shannon/oxy-character/engine/attachment"
	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/pose"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/skinning"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/temporal"
	"github.com/Carmen-Shannon/oxy-character/engine/skeleton"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// character is the implementation of the Character interface.
type character struct {
	mu *sync.Mutex

	name       string
	skel       skeleton.Skeleton
	evaluator  pose.Evaluator
	animator   animator.Animator
	dispatcher skinning.Dispatcher
	binder     attachment.Binder

	label     string
	placement mgl32.Mat4
	// worlds holds the actor world matrix per parity and doubles as the character's parity
	worlds *temporal.Pool[mgl32.Mat4]
	time   float64
}

// Character is one animated, skinned actor. It ties a skeleton and its clip to the bone
// palettes, the double-buffered skinning resources and the attached meshes.
//
// A frame is driven as FrameMove (or FrameMoveTime), then Skinning, then PrepareDraw before
// the skinned buffers are drawn. A Character is driven from one goroutine.
type Character interface {
	// Name returns the model name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// InitPosition places the actor: the world matrix rotates about Y by posRot.W and then
	// translates by posRot.XYZ. It is used by FrameMove when no explicit world is given.
	//
	// Parameters:
	//   - posRot: position in XYZ, yaw in radians in W
	InitPosition(posRot mgl32.Vec4)

	// FrameMove advances the parity exactly once, evaluates the pose at t, stages the bone
	// palettes for the new parity and updates the attachments. Afterwards no time is pending,
	// so Skinning reuses the pose.
	//
	// Parameters:
	//   - t: playback time in seconds
	//   - viewProj: the camera's view-projection matrix
	//   - world: the actor world matrix, or nil to use the InitPosition placement
	//   - shadowProj: the light's view-projection matrix, or nil
	//   - isTemporal: whether motion history is tracked for attachments
	//
	// Returns:
	//   - error: a wrapped evaluation error; the parity has still advanced and the previous pose is kept
	FrameMove(t float64, viewProj mgl32.Mat4, world, shadowProj *mgl32.Mat4, isTemporal bool) error

	// FrameMoveTime advances the parity exactly once and records t; the pose is evaluated by
	// the next Skinning call.
	//
	// Parameters:
	//   - t: playback time in seconds
	FrameMoveTime(t float64)

	// Skinning evaluates the pending time, if any, flushes the staged bone palettes and
	// records the skinning dispatch for the current parity. The GPU resources are created
	// on first use.
	//
	// Parameters:
	//   - stream: the command stream
	//
	// Returns:
	//   - error: an evaluation or initialization error
	Skinning(stream skinning.CommandStream) error

	// PrepareDraw records the transitions that make the current and previous skinned buffers readable.
	//
	// Parameters:
	//   - stream: the command stream
	PrepareDraw(stream skinning.CommandStream)

	// SkinnedBuffer returns the current parity's skinned vertex buffer of a mesh.
	// It panics when called before PrepareDraw.
	SkinnedBuffer(mesh int) *wgpu.Buffer

	// PrevSkinnedBuffer returns the previous parity's skinned vertex buffer of a mesh.
	PrevSkinnedBuffer(mesh int) *wgpu.Buffer

	// Parity returns the current temporal parity.
	Parity() uint32

	// Time returns the pending playback time, or pose.NoTime.
	Time() float64

	// WorldMatrix returns the actor world matrix of the current frame.
	WorldMatrix() mgl32.Mat4

	// PrevWorldMatrix returns the actor world matrix of the previous frame.
	PrevWorldMatrix() mgl32.Mat4

	// FrameWorldMatrix returns the posed world matrix of skeleton frame f.
	FrameWorldMatrix(f uint32) mgl32.Mat4

	// SkinningMatrix returns the skinning matrix of skeleton frame f.
	SkinningMatrix(f uint32) mgl32.Mat4

	// BindMatrix returns the bind-pose world matrix of skeleton frame f.
	BindMatrix(f uint32) mgl32.Mat4

	// Palette returns the CPU copy of a mesh's bone palette.
	Palette(mesh int) []animator.GPUDualQuat

	// Skeleton returns the skeleton.
	Skeleton() skeleton.Skeleton

	// Binder returns the attachment binder.
	Binder() attachment.Binder

	// Dispatcher returns the skinning dispatcher.
	Dispatcher() skinning.Dispatcher

	// Release releases the GPU resources.
	Release()
}

var _ Character = &character{}

// NewCharacter builds a character from a structured model.
//
// Parameters:
//   - m: the model
//   - options: a variadic list of CharacterBuilderOption functions
//
// Returns:
//   - Character: the character, at parity 0 in its bind pose
//   - error: a wrapped model validation or clip error
func NewCharacter(m model.Model, options ...CharacterBuilderOption) (Character, error) {
	skel, err := skeleton.NewSkeleton(m)
	if err != nil {
		return nil, err
	}
	var clip animation.Clip
	if m.Animation() != nil {
		if clip, err = animation.NewClip(m.Animation()); err != nil {
			return nil, fmt.Errorf("new character %q: %w", m.Name(), err)
		}
	}
	evaluator, err := pose.NewEvaluator(skel, clip)
	if err != nil {
		return nil, fmt.Errorf("new character %q: %w", m.Name(), err)
	}

	c := &character{
		mu:        &sync.Mutex{},
		name:      m.Name(),
		skel:      skel,
		evaluator: evaluator,
		label:     m.Name(),
		placement: mgl32.Ident4(),
		time:      pose.NoTime,
	}
	for _, opt := range options {
		opt(c)
	}

	influences := make([][]uint32, len(m.Meshes()))
	for i, mesh := range m.Meshes() {
		influences[i] = mesh.Influences
	}
	c.dispatcher = skinning.NewDispatcher(
		skinning.WithLabel(common.Coalesce(c.label, "character")),
		skinning.WithMeshes(m.Meshes()...),
	)
	c.animator = animator.NewAnimator(
		animator.WithMeshInfluences(influences...),
		animator.WithBoneTarget(c.dispatcher, skinning.BoneBinding),
	)
	c.binder = attachment.NewBinder(skel, m.Links())
	c.worlds = temporal.NewPool(func(uint32) mgl32.Mat4 { return c.placement })
	return c, nil
}

func (c *character) Name() string {
	return c.name
}

func (c *character) InitPosition(posRot mgl32.Vec4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placement = common.PlacementMatrix(posRot)
}

func (c *character) advance() {
	c.worlds.Advance()
	c.binder.FrameMove()
}

func (c *character) FrameMove(t float64, viewProj mgl32.Mat4, world, shadowProj *mgl32.Mat4, isTemporal bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.advance()
	c.time = pose.NoTime

	actor := c.placement
	if world != nil {
		actor = *world
	}
	c.worlds.Set(actor)

	err := c.evaluator.Evaluate(t)
	if err != nil {
		err = fmt.Errorf("character %q: %w", c.name, err)
	}
	c.animator.Update(c.evaluator, c.worlds.Parity())
	c.binder.Update(c.evaluator, actor, viewProj, shadowProj, isTemporal)
	return err
}

func (c *character) FrameMoveTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.advance()
	c.worlds.Set(c.worlds.Previous())
	c.time = t
}

func (c *character) Skinning(stream skinning.CommandStream) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dispatcher.Init(stream); err != nil {
		return fmt.Errorf("character %q: %w", c.name, err)
	}
	if c.time != pose.NoTime {
		t := c.time
		c.time = pose.NoTime
		if err := c.evaluator.Evaluate(t); err != nil {
			return fmt.Errorf("character %q: %w", c.name, err)
		}
		c.animator.Update(c.evaluator, c.worlds.Parity())
	}
	stream.WriteBuffers(c.animator.StagedWriteData())
	return c.dispatcher.Dispatch(stream, c.worlds.Parity())
}

func (c *character) PrepareDraw(stream skinning.CommandStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.PrepareDraw(stream, c.worlds.Parity())
}

func (c *character) SkinnedBuffer(mesh int) *wgpu.Buffer {
	return c.dispatcher.SkinnedBuffer(mesh, c.Parity())
}

func (c *character) PrevSkinnedBuffer(mesh int) *wgpu.Buffer {
	return c.dispatcher.SkinnedBuffer(mesh, c.Parity()+1)
}

func (c *character) Parity() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worlds.Parity()
}

func (c *character) Time() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *character) WorldMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worlds.Current()
}

func (c *character) PrevWorldMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worlds.Previous()
}

func (c *character) FrameWorldMatrix(f uint32) mgl32.Mat4 {
	return c.evaluator.WorldMatrix(f)
}

func (c *character) SkinningMatrix(f uint32) mgl32.Mat4 {
	return c.evaluator.SkinningMatrix(f)
}

func (c *character) BindMatrix(f uint32) mgl32.Mat4 {
	return c.skel.BindMatrix(f)
}

func (c *character) Palette(mesh int) []animator.GPUDualQuat {
	return c.animator.Palette(mesh)
}

func (c *character) Skeleton() skeleton.Skeleton {
	return c.skel
}

func (c *character) Binder() attachment.Binder {
	return c.binder
}

func (c *character) Dispatcher() skinning.Dispatcher {
	return c.dispatcher
}

func (c *character) Release() {
	c.dispatcher.Release()
}
