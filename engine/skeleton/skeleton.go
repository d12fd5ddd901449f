package skeleton

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/cases"
)

// Invalid is the sentinel frame index returned for missing frames.
const Invalid = model.Invalid

// VisitFunc is called once per frame during Traverse with the world matrix of the frame's parent
// (identity for roots). It returns the frame's own world matrix, which is handed to its children.
type VisitFunc func(frame uint32, parentWorld mgl32.Mat4) mgl32.Mat4

// skeleton is the implementation of the Skeleton interface.
type skeleton struct {
	frames    []model.Frame
	bindWorld []mgl32.Mat4
	byName    map[string]uint32
	bindOnce  *sync.Once
}

// Skeleton is the immutable frame forest of a character together with its bind pose.
// Frames are addressed by integer index into one owned array; model.Invalid marks absent links.
type Skeleton interface {
	// FrameCount returns the number of frames in the skeleton.
	//
	// Returns:
	//   - int: the frame count
	FrameCount() int

	// Frame returns a copy of the frame record at index i.
	//
	// Parameters:
	//   - i: the frame index
	//
	// Returns:
	//   - model.Frame: the frame record
	Frame(i uint32) model.Frame

	// LocalBind returns the local bind matrix of frame i relative to its parent.
	//
	// Parameters:
	//   - i: the frame index
	//
	// Returns:
	//   - mgl32.Mat4: the local bind matrix
	LocalBind(i uint32) mgl32.Mat4

	// BindMatrix returns the bind-pose world matrix of frame i.
	//
	// Parameters:
	//   - i: the frame index
	//
	// Returns:
	//   - mgl32.Mat4: the bind-pose world matrix
	BindMatrix(i uint32) mgl32.Mat4

	// Track returns the animation track index of frame i, or Invalid if the frame is static.
	//
	// Parameters:
	//   - i: the frame index
	//
	// Returns:
	//   - uint32: the track index or Invalid
	Track(i uint32) uint32

	// FindFrameIndex resolves a frame name using case-insensitive exact matching.
	// When several frames share a name the lowest index wins.
	//
	// Parameters:
	//   - name: the frame name to look up
	//
	// Returns:
	//   - uint32: the frame index, or Invalid if no frame matches
	FindFrameIndex(name string) uint32

	// ComputeBindPose fills the bind-pose world matrices from the local bind matrices.
	// It runs once when the skeleton is created; later calls do nothing.
	ComputeBindPose()

	// Traverse walks the forest from frame 0, visiting every parent before its descendants
	// and a frame's whole child subtree before its next sibling.
	// Siblings receive the same parent world matrix; children receive the value returned for their parent.
	//
	// Parameters:
	//   - visit: called once per frame
	Traverse(visit VisitFunc)

	// Dump renders the frame table and bind pose as a debug string.
	//
	// Returns:
	//   - string: the rendered dump
	Dump() string
}

var _ Skeleton = &skeleton{}

// NewSkeleton validates a structured model and builds its skeleton.
// Validation failures are fatal and no skeleton is returned.
//
// Parameters:
//   - m: the structured model to build from
//
// Returns:
//   - Skeleton: the skeleton with its bind pose computed
//   - error: the validation error, wrapping a model sentinel
func NewSkeleton(m model.Model) (Skeleton, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load skeleton %q: %w", m.Name(), err)
	}

	frames := make([]model.Frame, len(m.Frames()))
	copy(frames, m.Frames())

	s := &skeleton{
		frames:    frames,
		bindWorld: make([]mgl32.Mat4, len(frames)),
		byName:    make(map[string]uint32, len(frames)),
		bindOnce:  &sync.Once{},
	}

	fold := cases.Fold()
	for i, f := range frames {
		key := fold.String(f.Name)
		if _, exists := s.byName[key]; !exists {
			s.byName[key] = uint32(i)
		}
	}

	s.ComputeBindPose()
	return s, nil
}

func (s *skeleton) FrameCount() int {
	return len(s.frames)
}

func (s *skeleton) Frame(i uint32) model.Frame {
	return s.frames[i]
}

func (s *skeleton) LocalBind(i uint32) mgl32.Mat4 {
	return s.frames[i].Matrix
}

func (s *skeleton) BindMatrix(i uint32) mgl32.Mat4 {
	return s.bindWorld[i]
}

func (s *skeleton) Track(i uint32) uint32 {
	return s.frames[i].Track
}

func (s *skeleton) FindFrameIndex(name string) uint32 {
	if i, ok := s.byName[cases.Fold().String(model.FixupName(name))]; ok {
		return i
	}
	return Invalid
}

func (s *skeleton) ComputeBindPose() {
	s.bindOnce.Do(func() {
		s.Traverse(func(f uint32, parentWorld mgl32.Mat4) mgl32.Mat4 {
			s.bindWorld[f] = common.Then(s.frames[f].Matrix, parentWorld)
			return s.bindWorld[f]
		})
	})
}

type traversalEntry struct {
	frame       uint32
	parentWorld mgl32.Mat4
}

func (s *skeleton) Traverse(visit VisitFunc) {
	stack := make([]traversalEntry, 0, 16)
	stack = append(stack, traversalEntry{frame: 0, parentWorld: mgl32.Ident4()})
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		world := visit(e.frame, e.parentWorld)

		// The sibling is pushed first so the child subtree is popped and finished before it.
		f := &s.frames[e.frame]
		if f.Sibling != Invalid {
			stack = append(stack, traversalEntry{frame: f.Sibling, parentWorld: e.parentWorld})
		}
		if f.Child != Invalid {
			stack = append(stack, traversalEntry{frame: f.Child, parentWorld: world})
		}
	}
}

// frameDump is the per-frame row rendered by Dump.
type frameDump struct {
	Index   uint32
	Name    string
	Parent  uint32
	Child   uint32
	Sibling uint32
	Track   uint32
	Bind    [3]float32
}

func (s *skeleton) Dump() string {
	rows := make([]frameDump, len(s.frames))
	for i, f := range s.frames {
		rows[i] = frameDump{
			Index:   uint32(i),
			Name:    f.Name,
			Parent:  f.Parent,
			Child:   f.Child,
			Sibling: f.Sibling,
			Track:   f.Track,
			Bind:    s.bindWorld[i].Col(3).Vec3(),
		}
	}
	return common.SDump(rows)
}
