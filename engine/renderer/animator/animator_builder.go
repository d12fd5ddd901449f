package animator

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithMeshInfluences is an option builder that registers one palette per mesh.
// Each palette holds one bone per influence, in influence order, starting at the identity.
//
// Parameters:
//   - influences: the frame-index influence list of each mesh
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the influences option to an animator
func WithMeshInfluences(influences ...[]uint32) AnimatorBuilderOption {
	return func(a *animator) {
		identity := IdentityDualQuat().GPU()
		for _, inf := range influences {
			palette := make([]GPUDualQuat, len(inf))
			staging := make([]byte, len(inf)*(&GPUDualQuat{}).Size())
			for i := range palette {
				palette[i] = identity
				palette[i].marshalInto(staging[i*32:])
			}
			a.influences = append(a.influences, append([]uint32(nil), inf...))
			a.palettes = append(a.palettes, palette)
			a.staging = append(a.staging, staging)
		}
	}
}

// WithBoneTarget is an option builder that sets where palette writes are staged.
//
// Parameters:
//   - target: resolves the bone buffer provider per mesh and parity
//   - boneBinding: the binding index of the bone buffer on each provider
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the target option to an animator
func WithBoneTarget(target BoneTarget, boneBinding int) AnimatorBuilderOption {
	return func(a *animator) {
		a.target = target
		a.boneBinding = boneBinding
	}
}
