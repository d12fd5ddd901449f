package animation

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-character/engine/model"
)

var (
	ErrDegenerateKeyCount = errors.New("animation needs at least two keys to be sampled")
	ErrInvalidTime        = errors.New("animation time must be finite and non-negative")
)

// clip is the implementation of the Clip interface.
type clip struct {
	transformType model.TransformType
	fps           float64
	numKeys       uint32
	tracks        [][]model.Keyframe
}

// Clip is the single keyframe clip driving a skeleton.
// It is read-only after creation and is sampled by raw key index, without interpolation.
// Key 0 of every track is the rest key and is never returned by KeyFromTime.
type Clip interface {
	// TransformType reports whether the clip is evaluated relatively (hierarchically) or absolutely.
	//
	// Returns:
	//   - model.TransformType: the transform type
	TransformType() model.TransformType

	// FPS returns the number of keys played per second.
	//
	// Returns:
	//   - float64: keys per second
	FPS() float64

	// NumKeys returns the key count shared by every track, including the rest key.
	//
	// Returns:
	//   - uint32: the key count
	NumKeys() uint32

	// TrackCount returns the number of animated frames.
	//
	// Returns:
	//   - int: the track count
	TrackCount() int

	// Duration returns the length of one playback loop, in seconds.
	// Zero for clips that cannot be sampled.
	//
	// Returns:
	//   - float64: the loop length in seconds
	Duration() float64

	// KeyFromTime resolves a playback time to a key index.
	// The tick floor(fps*t) wraps modulo NumKeys-1 and is offset by one, so the
	// sampled keys cycle through 1..NumKeys-1 and key 0 stays reserved as the rest pose.
	//
	// Parameters:
	//   - t: playback time in seconds
	//
	// Returns:
	//   - uint32: the key index in [1, NumKeys-1]
	//   - error: ErrDegenerateKeyCount if NumKeys <= 1, ErrInvalidTime if t is negative or not finite
	KeyFromTime(t float64) (uint32, error)

	// Key returns the keyframe at index key of the given track.
	//
	// Parameters:
	//   - track: the track index (model.Frame.Track)
	//   - key: the key index
	//
	// Returns:
	//   - model.Keyframe: the keyframe
	Key(track, key uint32) model.Keyframe

	// Rest returns the rest keyframe (key 0) of the given track.
	//
	// Parameters:
	//   - track: the track index
	//
	// Returns:
	//   - model.Keyframe: the rest keyframe
	Rest(track uint32) model.Keyframe
}

var _ Clip = &clip{}

// NewClip wraps a validated model animation.
//
// Parameters:
//   - a: the animation; must not be nil
//
// Returns:
//   - Clip: the clip
//   - error: if a is nil or a track's length disagrees with the key count
func NewClip(a *model.Animation) (Clip, error) {
	if a == nil {
		return nil, errors.New("new clip: nil animation")
	}
	for i, track := range a.Tracks {
		if uint32(len(track)) != a.NumKeys {
			return nil, fmt.Errorf("new clip: %w: track %d has %d keys, expected %d", model.ErrTrackLength, i, len(track), a.NumKeys)
		}
	}
	return &clip{
		transformType: a.TransformType,
		fps:           float64(a.FPS),
		numKeys:       a.NumKeys,
		tracks:        a.Tracks,
	}, nil
}

func (c *clip) TransformType() model.TransformType {
	return c.transformType
}

func (c *clip) FPS() float64 {
	return c.fps
}

func (c *clip) NumKeys() uint32 {
	return c.numKeys
}

func (c *clip) TrackCount() int {
	return len(c.tracks)
}

func (c *clip) Duration() float64 {
	if c.numKeys <= 1 || c.fps <= 0 {
		return 0
	}
	return float64(c.numKeys-1) / c.fps
}

func (c *clip) KeyFromTime(t float64) (uint32, error) {
	if c.numKeys <= 1 {
		return 0, fmt.Errorf("%w: %d keys", ErrDegenerateKeyCount, c.numKeys)
	}
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTime, t)
	}

	tick := math.Floor(c.fps * t)
	loop := uint64(c.numKeys - 1)
	var wrapped uint64
	if tick < 1<<63 {
		wrapped = uint64(tick) % loop
	} else {
		wrapped = uint64(math.Mod(tick, float64(loop)))
	}
	return uint32(wrapped) + 1, nil
}

func (c *clip) Key(track, key uint32) model.Keyframe {
	return c.tracks[track][key]
}

func (c *clip) Rest(track uint32) model.Keyframe {
	return c.tracks[track][0]
}
