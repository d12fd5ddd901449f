package attachment

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-character/engine/model"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/temporal"
	"github.com/Carmen-Shannon/oxy-character/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// Pose supplies the skinning matrix of a frame. pose.Evaluator satisfies it.
type Pose interface {
	SkinningMatrix(frame uint32) mgl32.Mat4
}

// binder is the implementation of the Binder interface.
type binder struct {
	mu *sync.Mutex

	links []model.MeshLink
	bones []uint32
	slots *temporal.Pool[[]GPULinkMatrices]
}

// Binder keeps rigidly attached meshes following their bones.
//
// Bone names are resolved once at creation. A link whose bone does not exist is inert: its
// matrices stay identity and Update skips it. Each parity has its own copy of every link's
// matrices, so the previous frame's world-view-projection survives for motion history.
type Binder interface {
	// LinkCount returns the number of links.
	//
	// Returns:
	//   - int: the link count
	LinkCount() int

	// Link returns the link record at index i.
	//
	// Parameters:
	//   - i: the link index
	//
	// Returns:
	//   - model.MeshLink: the link
	Link(i int) model.MeshLink

	// Bone returns the frame index link i is bound to, or skeleton.Invalid when inert.
	//
	// Parameters:
	//   - i: the link index
	//
	// Returns:
	//   - uint32: the frame index
	Bone(i int) uint32

	// Resolved reports whether link i found its bone.
	//
	// Parameters:
	//   - i: the link index
	//
	// Returns:
	//   - bool: true if the link follows a bone
	Resolved(i int) bool

	// Update recomputes the current parity's matrices of every resolved link:
	// worldViewProj = viewProj * actorWorld * skinning[bone], and, when shadowProj is not nil,
	// shadowProj * actorWorld * skinning[bone]. World is the actor world and Normal its inverse.
	// When isTemporal is set the previous parity's worldViewProj is exposed as PrevWorldViewProj,
	// otherwise PrevWorldViewProj equals the current one.
	//
	// Parameters:
	//   - pose: the evaluated pose
	//   - actorWorld: the character's world matrix
	//   - viewProj: the camera's view-projection matrix
	//   - shadowProj: the light's view-projection matrix, or nil
	//   - isTemporal: whether motion history is tracked
	Update(pose Pose, actorWorld, viewProj mgl32.Mat4, shadowProj *mgl32.Mat4, isTemporal bool)

	// FrameMove advances the binder's parity.
	FrameMove()

	// Parity returns the binder's current parity.
	//
	// Returns:
	//   - uint32: 0 or 1
	Parity() uint32

	// WorldViewProj returns link i's world-view-projection for the current parity.
	WorldViewProj(i int) mgl32.Mat4

	// PrevWorldViewProj returns link i's world-view-projection of the previous frame.
	PrevWorldViewProj(i int) mgl32.Mat4

	// ShadowProj returns link i's shadow projection for the current parity.
	ShadowProj(i int) mgl32.Mat4

	// World returns the world matrix recorded for link i.
	World(i int) mgl32.Mat4

	// Normal returns the inverse world matrix recorded for link i.
	Normal(i int) mgl32.Mat4

	// Matrices returns link i's constant block for the current parity.
	//
	// Parameters:
	//   - i: the link index
	//
	// Returns:
	//   - GPULinkMatrices: the constant block
	Matrices(i int) GPULinkMatrices
}

var _ Binder = &binder{}

// NewBinder resolves every link's bone against the skeleton.
// Unresolved bones are logged once and leave the link inert; they are not an error.
//
// Parameters:
//   - skel: the skeleton to resolve against
//   - links: the mesh links
//
// Returns:
//   - Binder: the binder, at parity 0 with identity matrices
func NewBinder(skel skeleton.Skeleton, links []model.MeshLink) Binder {
	b := &binder{
		mu:    &sync.Mutex{},
		links: append([]model.MeshLink(nil), links...),
		bones: make([]uint32, len(links)),
	}
	for i, l := range links {
		b.bones[i] = skel.FindFrameIndex(l.BoneName)
		if b.bones[i] == skeleton.Invalid {
			log.Printf("[Attachment] mesh %q: bone %q not found, attachment is inert", l.Mesh, l.BoneName)
		}
	}
	b.slots = temporal.NewPool(func(uint32) []GPULinkMatrices {
		s := make([]GPULinkMatrices, len(links))
		for i := range s {
			id := mgl32.Ident4()
			s[i] = GPULinkMatrices{WorldViewProj: id, World: id, Normal: id, ShadowProj: id, WorldViewProjPrev: id}
		}
		return s
	})
	return b
}

func (b *binder) LinkCount() int {
	return len(b.links)
}

func (b *binder) Link(i int) model.MeshLink {
	return b.links[i]
}

func (b *binder) Bone(i int) uint32 {
	return b.bones[i]
}

func (b *binder) Resolved(i int) bool {
	return b.bones[i] != skeleton.Invalid
}

func (b *binder) Update(pose Pose, actorWorld, viewProj mgl32.Mat4, shadowProj *mgl32.Mat4, isTemporal bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.slots.Current()
	previous := b.slots.Previous()
	normal := actorWorld.Inv()

	for i, bone := range b.bones {
		if bone == skeleton.Invalid {
			continue
		}
		placed := actorWorld.Mul4(pose.SkinningMatrix(bone))
		m := &current[i]
		m.WorldViewProj = viewProj.Mul4(placed)
		m.World = actorWorld
		m.Normal = normal
		if shadowProj != nil {
			m.ShadowProj = shadowProj.Mul4(placed)
		}
		if isTemporal {
			m.WorldViewProjPrev = previous[i].WorldViewProj
		} else {
			m.WorldViewProjPrev = m.WorldViewProj
		}
	}
}

func (b *binder) FrameMove() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots.Advance()
}

func (b *binder) Parity() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots.Parity()
}

func (b *binder) WorldViewProj(i int) mgl32.Mat4 {
	return b.Matrices(i).WorldViewProj
}

func (b *binder) PrevWorldViewProj(i int) mgl32.Mat4 {
	return b.Matrices(i).WorldViewProjPrev
}

func (b *binder) ShadowProj(i int) mgl32.Mat4 {
	return b.Matrices(i).ShadowProj
}

func (b *binder) World(i int) mgl32.Mat4 {
	return b.Matrices(i).World
}

func (b *binder) Normal(i int) mgl32.Mat4 {
	return b.Matrices(i).Normal
}

func (b *binder) Matrices(i int) GPULinkMatrices {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots.Current()[i]
}
