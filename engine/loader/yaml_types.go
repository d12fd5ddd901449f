package loader

// yamlModel is the document layout of a YAML model description.
//
// Frames are listed parents first; a frame names its parent, and the child and sibling links
// are derived from list order. A frame with no parent is a root; additional roots become
// siblings of the first frame.
type yamlModel struct {
	Name      string         `yaml:"name"`
	Version   *uint32        `yaml:"version"`
	Frames    []yamlFrame    `yaml:"frames"`
	Animation *yamlAnimation `yaml:"animation"`
	Meshes    []yamlMesh     `yaml:"meshes"`
	Links     []yamlLink     `yaml:"links"`
}

type yamlFrame struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`

	// Matrix is a full column-major local bind matrix. When present the TRS fields are ignored.
	Matrix []float32 `yaml:"matrix"`

	yamlTransform `yaml:",inline"`
}

// yamlTransform is a translation, rotation, scale triple. Rotation is either a quaternion
// [x, y, z, w] or Euler angles in degrees applied X, then Y, then Z.
type yamlTransform struct {
	Translation []float32 `yaml:"t"`
	Rotation    []float32 `yaml:"r"`
	Euler       []float32 `yaml:"euler"`
	Scale       []float32 `yaml:"s"`
}

type yamlAnimation struct {
	Transform string      `yaml:"transform"`
	FPS       float32     `yaml:"fps"`
	Keys      uint32      `yaml:"keys"`
	Tracks    []yamlTrack `yaml:"tracks"`
}

type yamlTrack struct {
	Frame string          `yaml:"frame"`
	Keys  []yamlTransform `yaml:"keys"`
}

type yamlMesh struct {
	Name       string       `yaml:"name"`
	Influences []string     `yaml:"influences"`
	Vertices   []yamlVertex `yaml:"vertices"`
}

type yamlVertex struct {
	Position []float32 `yaml:"p"`
	Normal   []float32 `yaml:"n"`
	TexCoord []float32 `yaml:"uv"`
	Bones    []uint32  `yaml:"bones"`
	Weights  []float32 `yaml:"weights"`
}

type yamlLink struct {
	Bone string `yaml:"bone"`
	Mesh string `yaml:"mesh"`
}
