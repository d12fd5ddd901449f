package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVersion is an option builder that sets the declared format version of the Model.
// Validate rejects any version other than FormatVersion.
//
// Parameters:
//   - version: the declared format version
//
// Returns:
//   - ModelBuilderOption: a function that applies the version option to a model
func WithVersion(version uint32) ModelBuilderOption {
	return func(m *model) {
		m.version = version
	}
}

// WithFrames is an option builder that sets the frame array of the Model.
// Frame names are fixed up with FixupName.
//
// Parameters:
//   - frames: the frames to set; the slice is copied
//
// Returns:
//   - ModelBuilderOption: a function that applies the frames option to a model
func WithFrames(frames []Frame) ModelBuilderOption {
	return func(m *model) {
		m.frames = make([]Frame, len(frames))
		copy(m.frames, frames)
		for i := range m.frames {
			m.frames[i].Name = FixupName(m.frames[i].Name)
		}
	}
}

// WithAnimation is an option builder that sets the animation clip of the Model.
//
// Parameters:
//   - animation: the animation to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animation option to a model
func WithAnimation(animation *Animation) ModelBuilderOption {
	return func(m *model) {
		m.animation = animation
	}
}

// WithMeshes is an option builder that sets the skinned meshes of the Model.
//
// Parameters:
//   - meshes: the meshes to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = append(m.meshes, meshes...)
	}
}

// WithLinks is an option builder that sets the rigid attachments of the Model.
//
// Parameters:
//   - links: the mesh links to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the links option to a model
func WithLinks(links ...MeshLink) ModelBuilderOption {
	return func(m *model) {
		m.links = append(m.links, links...)
	}
}
