package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrVersionMismatch      = errors.New("model format version mismatch")
	ErrEmptySkeleton        = errors.New("model has no frames")
	ErrFrameIndexOutOfRange = errors.New("frame index out of range")
	ErrCyclicHierarchy      = errors.New("frame hierarchy contains a cycle")
	ErrUnreachableFrame     = errors.New("frame is not reachable from the root")
	ErrTrackIndexOutOfRange = errors.New("animation track index out of range")
	ErrTrackLength          = errors.New("animation track length does not match key count")
	ErrUnknownTransformType = errors.New("unknown animation transform type")
	ErrInvalidFPS           = errors.New("animation fps must be finite and non-negative")
	ErrInfluenceOutOfRange  = errors.New("mesh influence refers to a missing frame")
	ErrVertexBoneOutOfRange = errors.New("vertex bone index exceeds mesh influence count")
)

// model is the implementation of the Model interface.
type model struct {
	name      string
	version   uint32
	frames    []Frame
	animation *Animation
	meshes    []Mesh
	links     []MeshLink
}

// Model is the structured, in-memory character description consumed by the animation core.
// It is produced by an asset loader and is read-only once validated.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Version retrieves the declared format version.
	//
	// Returns:
	//   - uint32: the format version
	Version() uint32

	// Frames retrieves the flat frame array. Index 0 is the first root.
	//
	// Returns:
	//   - []Frame: the frames
	Frames() []Frame

	// Animation retrieves the bundled clip, or nil for a static model.
	//
	// Returns:
	//   - *Animation: the animation or nil
	Animation() *Animation

	// Meshes retrieves the skinned sub-meshes.
	//
	// Returns:
	//   - []Mesh: the meshes
	Meshes() []Mesh

	// Links retrieves the rigid attachments declared for this model.
	//
	// Returns:
	//   - []MeshLink: the mesh links
	Links() []MeshLink

	// Validate checks the model for structural corruption.
	// Any returned error is fatal: the model must not be used to build a skeleton.
	//
	// Returns:
	//   - error: nil if the model is well formed, otherwise an error wrapping one of the package sentinels
	Validate() error
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// The version defaults to FormatVersion.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{version: FormatVersion}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Version() uint32 {
	return m.version
}

func (m *model) Frames() []Frame {
	return m.frames
}

func (m *model) Animation() *Animation {
	return m.animation
}

func (m *model) Meshes() []Mesh {
	return m.meshes
}

func (m *model) Links() []MeshLink {
	return m.links
}

func (m *model) Validate() error {
	if m.version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrVersionMismatch, m.version, FormatVersion)
	}
	if len(m.frames) == 0 {
		return ErrEmptySkeleton
	}
	if err := m.validateAnimation(); err != nil {
		return err
	}

	n := uint32(len(m.frames))
	inRange := func(i uint32) bool { return i == Invalid || i < n }
	for i, f := range m.frames {
		if !inRange(f.Parent) || !inRange(f.Child) || !inRange(f.Sibling) {
			return fmt.Errorf("%w: frame %d (%q)", ErrFrameIndexOutOfRange, i, f.Name)
		}
		if f.Track == Invalid {
			continue
		}
		if m.animation == nil || int(f.Track) >= len(m.animation.Tracks) {
			return fmt.Errorf("%w: frame %d (%q) track %d", ErrTrackIndexOutOfRange, i, f.Name, f.Track)
		}
	}
	if err := m.validateHierarchy(); err != nil {
		return err
	}

	for mi := range m.meshes {
		mesh := &m.meshes[mi]
		for _, inf := range mesh.Influences {
			if inf >= n {
				return fmt.Errorf("%w: mesh %q influence %d", ErrInfluenceOutOfRange, mesh.Name, inf)
			}
		}
		influences := uint32(len(mesh.Influences))
		for vi := range mesh.Vertices {
			for k, b := range mesh.Vertices[vi].BoneIndices {
				if mesh.Vertices[vi].BoneWeights[k] != 0 && b >= influences {
					return fmt.Errorf("%w: mesh %q vertex %d bone %d", ErrVertexBoneOutOfRange, mesh.Name, vi, b)
				}
			}
		}
	}
	return nil
}

func (m *model) validateAnimation() error {
	a := m.animation
	if a == nil {
		return nil
	}
	if a.TransformType != TransformRelative && a.TransformType != TransformAbsolute {
		return fmt.Errorf("%w: %d", ErrUnknownTransformType, a.TransformType)
	}
	fps := float64(a.FPS)
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFPS, a.FPS)
	}
	for i, track := range a.Tracks {
		if uint32(len(track)) != a.NumKeys {
			return fmt.Errorf("%w: track %d has %d keys, expected %d", ErrTrackLength, i, len(track), a.NumKeys)
		}
	}
	return nil
}

// validateHierarchy walks child/sibling links from frame 0 and requires every frame to be visited exactly once.
func (m *model) validateHierarchy() error {
	visited := make([]bool, len(m.frames))
	stack := []uint32{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			return fmt.Errorf("%w: frame %d (%q) reached twice", ErrCyclicHierarchy, i, m.frames[i].Name)
		}
		visited[i] = true
		if s := m.frames[i].Sibling; s != Invalid {
			stack = append(stack, s)
		}
		if c := m.frames[i].Child; c != Invalid {
			stack = append(stack, c)
		}
	}
	for i, ok := range visited {
		if !ok {
			return fmt.Errorf("%w: frame %d (%q)", ErrUnreachableFrame, i, m.frames[i].Name)
		}
	}
	return nil
}

// FixupName replaces spaces in a frame name with underscores so names survive whitespace-delimited tooling.
//
// Parameters:
//   - name: the raw frame name
//
// Returns:
//   - string: the fixed-up name
func FixupName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
