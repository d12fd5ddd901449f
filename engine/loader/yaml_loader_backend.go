package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFrame   = errors.New("unknown frame name")
	ErrVectorLength   = errors.New("vector has the wrong number of components")
	ErrTooManyBones   = errors.New("vertex has more than four bones")
	ErrParentOrder    = errors.New("frame is listed before its parent")
	ErrDuplicateTrack = errors.New("frame has more than one track")
)

// yamlLoaderBackend is the loaderBackend for YAML model descriptions.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Load(path string) (model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return b.LoadReader(f)
}

func (b *yamlLoaderBackend) LoadReader(r io.Reader) (model.Model, error) {
	var doc yamlModel
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.build()
}

func (d *yamlModel) build() (model.Model, error) {
	frames, index, err := d.buildFrames()
	if err != nil {
		return nil, err
	}
	anim, err := d.buildAnimation(frames, index)
	if err != nil {
		return nil, err
	}
	meshes, err := d.buildMeshes(index)
	if err != nil {
		return nil, err
	}
	links := make([]model.MeshLink, len(d.Links))
	for i, l := range d.Links {
		links[i] = model.MeshLink{BoneName: l.Bone, Mesh: l.Mesh}
	}

	opts := []model.ModelBuilderOption{
		model.WithName(d.Name),
		model.WithFrames(frames),
		model.WithAnimation(anim),
		model.WithMeshes(meshes...),
		model.WithLinks(links...),
	}
	if d.Version != nil {
		opts = append(opts, model.WithVersion(*d.Version))
	}
	return model.NewModel(opts...), nil
}

// buildFrames resolves parent names into the flat frame array. Names are matched the way bone
// lookup matches them; the first frame with a name wins.
func (d *yamlModel) buildFrames() ([]model.Frame, map[string]uint32, error) {
	frames := make([]model.Frame, len(d.Frames))
	index := make(map[string]uint32, len(d.Frames))
	lastChild := make([]uint32, len(d.Frames))
	lastRoot := model.Invalid

	for i, yf := range d.Frames {
		f := uint32(i)
		local, err := yf.local()
		if err != nil {
			return nil, nil, fmt.Errorf("frame %q: %w", yf.Name, err)
		}
		frames[i] = model.Frame{
			Name:    yf.Name,
			Parent:  model.Invalid,
			Child:   model.Invalid,
			Sibling: model.Invalid,
			Matrix:  local,
			Track:   model.Invalid,
		}
		lastChild[i] = model.Invalid

		if yf.Parent == "" {
			if lastRoot != model.Invalid {
				frames[lastRoot].Sibling = f
			}
			lastRoot = f
		} else {
			p, ok := index[frameKey(yf.Parent)]
			if !ok {
				return nil, nil, fmt.Errorf("frame %q: parent %q: %w", yf.Name, yf.Parent, ErrParentOrder)
			}
			frames[i].Parent = p
			if lastChild[p] == model.Invalid {
				frames[p].Child = f
			} else {
				frames[lastChild[p]].Sibling = f
			}
			lastChild[p] = f
		}

		key := frameKey(yf.Name)
		if _, dup := index[key]; !dup {
			index[key] = f
		}
	}
	return frames, index, nil
}

func (d *yamlModel) buildAnimation(frames []model.Frame, index map[string]uint32) (*model.Animation, error) {
	if d.Animation == nil {
		return nil, nil
	}
	ya := d.Animation
	anim := &model.Animation{
		FPS:     ya.FPS,
		NumKeys: ya.Keys,
		Tracks:  make([][]model.Keyframe, len(ya.Tracks)),
	}
	switch strings.ToLower(common.Coalesce(ya.Transform, "relative")) {
	case "relative":
		anim.TransformType = model.TransformRelative
	case "absolute":
		anim.TransformType = model.TransformAbsolute
	default:
		return nil, fmt.Errorf("animation transform %q: %w", ya.Transform, model.ErrUnknownTransformType)
	}
	if anim.NumKeys == 0 && len(ya.Tracks) > 0 {
		anim.NumKeys = uint32(len(ya.Tracks[0].Keys))
	}

	for t, yt := range ya.Tracks {
		f, ok := index[frameKey(yt.Frame)]
		if !ok {
			return nil, fmt.Errorf("track %d frame %q: %w", t, yt.Frame, ErrUnknownFrame)
		}
		if frames[f].Track != model.Invalid {
			return nil, fmt.Errorf("track %d frame %q: %w", t, yt.Frame, ErrDuplicateTrack)
		}
		frames[f].Track = uint32(t)

		keys := make([]model.Keyframe, len(yt.Keys))
		for k, yk := range yt.Keys {
			kf, err := yk.keyframe()
			if err != nil {
				return nil, fmt.Errorf("track %d key %d: %w", t, k, err)
			}
			keys[k] = kf
		}
		anim.Tracks[t] = keys
	}
	return anim, nil
}

func (d *yamlModel) buildMeshes(index map[string]uint32) ([]model.Mesh, error) {
	meshes := make([]model.Mesh, len(d.Meshes))
	for m, ym := range d.Meshes {
		mesh := model.Mesh{
			Name:       ym.Name,
			Influences: make([]uint32, len(ym.Influences)),
			Vertices:   make([]model.GPUSkinVertex, len(ym.Vertices)),
		}
		for i, name := range ym.Influences {
			f, ok := index[frameKey(name)]
			if !ok {
				return nil, fmt.Errorf("mesh %q influence %q: %w", ym.Name, name, ErrUnknownFrame)
			}
			mesh.Influences[i] = f
		}
		for v, yv := range ym.Vertices {
			gv, err := yv.vertex()
			if err != nil {
				return nil, fmt.Errorf("mesh %q vertex %d: %w", ym.Name, v, err)
			}
			mesh.Vertices[v] = gv
		}
		meshes[m] = mesh
	}
	return meshes, nil
}

func (f *yamlFrame) local() (mgl32.Mat4, error) {
	if f.Matrix != nil {
		if len(f.Matrix) != 16 {
			return mgl32.Mat4{}, fmt.Errorf("matrix: %w", ErrVectorLength)
		}
		var m mgl32.Mat4
		copy(m[:], f.Matrix)
		return m, nil
	}
	k, err := f.keyframe()
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return common.Compose(k.Scale, k.Rotation, k.Translation), nil
}

func (t *yamlTransform) keyframe() (model.Keyframe, error) {
	k := model.Keyframe{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
	var err error
	if k.Translation, err = vec3(t.Translation, k.Translation); err != nil {
		return k, fmt.Errorf("translation: %w", err)
	}
	if k.Scale, err = vec3(t.Scale, k.Scale); err != nil {
		return k, fmt.Errorf("scale: %w", err)
	}
	switch {
	case t.Rotation != nil:
		if len(t.Rotation) != 4 {
			return k, fmt.Errorf("rotation: %w", ErrVectorLength)
		}
		k.Rotation = mgl32.Quat{W: t.Rotation[3], V: mgl32.Vec3{t.Rotation[0], t.Rotation[1], t.Rotation[2]}}
	case t.Euler != nil:
		e, err := vec3(t.Euler, mgl32.Vec3{})
		if err != nil {
			return k, fmt.Errorf("euler: %w", err)
		}
		k.Rotation = mgl32.AnglesToQuat(mgl32.DegToRad(e[0]), mgl32.DegToRad(e[1]), mgl32.DegToRad(e[2]), mgl32.XYZ)
	}
	return k, nil
}

func (v *yamlVertex) vertex() (model.GPUSkinVertex, error) {
	var out model.GPUSkinVertex
	p, err := vec3(v.Position, mgl32.Vec3{})
	if err != nil {
		return out, fmt.Errorf("position: %w", err)
	}
	n, err := vec3(v.Normal, mgl32.Vec3{0, 1, 0})
	if err != nil {
		return out, fmt.Errorf("normal: %w", err)
	}
	if v.TexCoord != nil && len(v.TexCoord) != 2 {
		return out, fmt.Errorf("uv: %w", ErrVectorLength)
	}
	if len(v.Bones) > 4 || len(v.Weights) > 4 {
		return out, ErrTooManyBones
	}
	if len(v.Bones) != len(v.Weights) {
		return out, fmt.Errorf("bones and weights: %w", ErrVectorLength)
	}
	out.Position = [3]float32(p)
	out.Normal = [3]float32(n)
	copy(out.TexCoord[:], v.TexCoord)
	copy(out.BoneIndices[:], v.Bones)
	copy(out.BoneWeights[:], v.Weights)
	return out, nil
}

func vec3(v []float32, def mgl32.Vec3) (mgl32.Vec3, error) {
	if v == nil {
		return def, nil
	}
	if len(v) != 3 {
		return def, ErrVectorLength
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

// frameKey normalizes a frame name for lookup: fixed up and case-folded.
func frameKey(name string) string {
	return strings.ToLower(model.FixupName(name))
}
