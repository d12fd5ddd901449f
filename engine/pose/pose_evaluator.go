package pose

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/Carmen-Shannon/oxy-character/engine/animation"
	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// NoTime is the "no new time" sentinel: a caller holding NoTime re-skins with the pose it already has.
const NoTime = -1.0

// evaluator is the implementation of the Evaluator interface.
type evaluator struct {
	skel skeleton.Skeleton
	clip animation.Clip

	invBind  []mgl32.Mat4
	world    []mgl32.Mat4
	skinning []mgl32.Mat4

	lastKey uint32
}

// Evaluator samples a clip against a skeleton and holds the resulting pose.
// An Evaluator is owned by one character and must not be shared across goroutines.
type Evaluator interface {
	// Evaluate refreshes the pose for playback time t.
	// Relative clips are composed down the hierarchy and the bind pose is removed afterwards.
	// Absolute clips compute each animated frame independently as a delta from its rest key.
	// On error the previous pose is left untouched.
	//
	// Parameters:
	//   - t: playback time in seconds
	//
	// Returns:
	//   - error: a wrapped animation.ErrDegenerateKeyCount or animation.ErrInvalidTime
	Evaluate(t float64) error

	// WorldMatrix returns the transformed world matrix of frame f from the last evaluation.
	//
	// Parameters:
	//   - f: the frame index
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	WorldMatrix(f uint32) mgl32.Mat4

	// SkinningMatrix returns the matrix consumed by skinning for frame f:
	// the transform from bind-pose model space to the current pose.
	//
	// Parameters:
	//   - f: the frame index
	//
	// Returns:
	//   - mgl32.Mat4: the skinning matrix
	SkinningMatrix(f uint32) mgl32.Mat4

	// LastKey returns the key index sampled by the last successful evaluation, or 0 before any.
	//
	// Returns:
	//   - uint32: the key index
	LastKey() uint32

	// Skeleton returns the skeleton being posed.
	//
	// Returns:
	//   - skeleton.Skeleton: the skeleton
	Skeleton() skeleton.Skeleton
}

var _ Evaluator = &evaluator{}

// NewEvaluator creates an evaluator with the pose initialized to the bind pose.
//
// Parameters:
//   - skel: the skeleton to pose
//   - clip: the clip to sample, or nil for a static skeleton
//
// Returns:
//   - Evaluator: the evaluator
//   - error: if a frame refers to a track the clip does not have
func NewEvaluator(skel skeleton.Skeleton, clip animation.Clip) (Evaluator, error) {
	n := skel.FrameCount()
	e := &evaluator{
		skel:     skel,
		clip:     clip,
		invBind:  make([]mgl32.Mat4, n),
		world:    make([]mgl32.Mat4, n),
		skinning: make([]mgl32.Mat4, n),
	}
	for f := range n {
		i := uint32(f)
		if track := skel.Track(i); track != model.Invalid && (clip == nil || int(track) >= clip.TrackCount()) {
			return nil, fmt.Errorf("new evaluator: %w: frame %d track %d", model.ErrTrackIndexOutOfRange, f, track)
		}
		e.invBind[f] = skel.BindMatrix(i).Inv()
		e.world[f] = skel.BindMatrix(i)
		e.skinning[f] = mgl32.Ident4()
	}
	return e, nil
}

func (e *evaluator) Evaluate(t float64) error {
	if e.clip == nil {
		return nil
	}
	key, err := e.clip.KeyFromTime(t)
	if err != nil {
		return fmt.Errorf("evaluate pose at %v: %w", t, err)
	}

	switch e.clip.TransformType() {
	case model.TransformAbsolute:
		e.evaluateAbsolute(key)
	default:
		e.evaluateRelative(key)
	}
	e.lastKey = key
	return nil
}

func (e *evaluator) evaluateRelative(key uint32) {
	e.skel.Traverse(func(f uint32, parentWorld mgl32.Mat4) mgl32.Mat4 {
		local := e.skel.LocalBind(f)
		if track := e.skel.Track(f); track != model.Invalid {
			k := e.clip.Key(track, key)
			local = common.Compose(k.Scale, k.Rotation, k.Translation)
		}
		e.world[f] = common.Then(local, parentWorld)
		return e.world[f]
	})

	for f := range e.world {
		e.skinning[f] = common.Then(e.invBind[f], e.world[f])
	}
}

func (e *evaluator) evaluateAbsolute(key uint32) {
	for f := range e.skinning {
		i := uint32(f)
		track := e.skel.Track(i)
		if track == model.Invalid {
			e.skinning[f] = mgl32.Ident4()
			e.world[f] = e.skel.BindMatrix(i)
			continue
		}

		rest := e.clip.Rest(track)
		k := e.clip.Key(track, key)

		inverseToRest := common.Then(
			mgl32.Translate3D(-rest.Translation[0], -rest.Translation[1], -rest.Translation[2]),
			common.QuatOrIdentity(rest.Rotation).Inverse().Mat4(),
		)
		fromSampled := common.Then(
			common.QuatOrIdentity(k.Rotation).Mat4(),
			mgl32.Translate3D(k.Translation[0], k.Translation[1], k.Translation[2]),
		)
		e.skinning[f] = common.Then(inverseToRest, fromSampled)
		e.world[f] = common.Then(e.skel.BindMatrix(i), e.skinning[f])
	}
}

func (e *evaluator) WorldMatrix(f uint32) mgl32.Mat4 {
	return e.world[f]
}

func (e *evaluator) SkinningMatrix(f uint32) mgl32.Mat4 {
	return e.skinning[f]
}

func (e *evaluator) LastKey() uint32 {
	return e.lastKey
}

func (e *evaluator) Skeleton() skeleton.Skeleton {
	return e.skel
}
