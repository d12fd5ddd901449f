package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FormatVersion is the structured model format version this engine consumes.
// Models declaring any other version are rejected at load.
const FormatVersion uint32 = 101

// Invalid terminates child/sibling chains and marks absent parent, track and bone references.
const Invalid uint32 = 0xFFFFFFFF

// --- Skeleton Types ---

// Frame is a single node of the skeleton forest.
// Frames live in one flat array and refer to each other by index.
type Frame struct {
	// Name is the frame identifier used for bone lookup. Spaces are replaced with underscores at load.
	Name string

	// Parent is the index of the parent frame, or Invalid for roots.
	Parent uint32

	// Child is the index of the first child frame, or Invalid for leaves.
	Child uint32

	// Sibling is the index of the next sibling frame, or Invalid for the last sibling.
	Sibling uint32

	// Matrix is the local bind transform relative to the parent frame.
	Matrix mgl32.Mat4

	// Track is the index of this frame's keyframe track in the Animation, or Invalid if the frame is static.
	Track uint32
}

// --- Animation Types ---

// TransformType selects how keyframes are turned into skinning matrices.
type TransformType uint32

const (
	// TransformRelative composes keyframes down the hierarchy and removes the bind pose afterwards.
	TransformRelative TransformType = iota
	// TransformAbsolute computes each animated frame on its own as a delta from its rest key.
	TransformAbsolute
)

// String returns the lowercase name of the transform type.
//
// Returns:
//   - string: "relative", "absolute" or "unknown"
func (t TransformType) String() string {
	switch t {
	case TransformRelative:
		return "relative"
	case TransformAbsolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// Keyframe is one sampled local transform of an animated frame.
type Keyframe struct {
	// Translation is the position offset.
	Translation mgl32.Vec3

	// Rotation is the orientation quaternion. A zero quaternion is treated as identity.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// Animation holds the single clip bundled with a model.
type Animation struct {
	// TransformType selects relative (hierarchical) or absolute evaluation.
	TransformType TransformType

	// FPS is the number of keys sampled per second of playback.
	FPS float32

	// NumKeys is the key count shared by every track. Key 0 is the rest key.
	NumKeys uint32

	// Tracks holds NumKeys keyframes per animated frame, indexed by Frame.Track.
	Tracks [][]Keyframe
}

// --- Mesh Types ---

// Mesh is one skinned sub-mesh of a model.
type Mesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the static input vertices. Their bone indices refer to Influences.
	Vertices []GPUSkinVertex

	// Influences lists the frame indices whose skinning matrices drive this mesh, in palette order.
	Influences []uint32
}

// VertexCount returns the number of input vertices in the mesh.
//
// Returns:
//   - uint32: the vertex count
func (m *Mesh) VertexCount() uint32 {
	return uint32(len(m.Vertices))
}

// MeshLink attaches an external mesh rigidly to a named bone.
type MeshLink struct {
	// BoneName is the frame name the mesh rides on, matched case-insensitively.
	BoneName string

	// Mesh names the attached mesh. It is opaque to the animation core.
	Mesh string
}
