package animator

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

func TestDualQuatIdentityLaw(t *testing.T) {
	dq := ToDualQuat(mgl32.QuatIdent(), mgl32.Vec3{})
	if dq.Dual != (mgl32.Quat{}) {
		t.Errorf("ToDualQuat(identity, 0).Dual=%v; expected exactly zero", dq.Dual)
	}
	if dq.Real != mgl32.QuatIdent() {
		t.Errorf("ToDualQuat(identity, 0).Real=%v; expected identity", dq.Real)
	}
	if got := FromMatrix(mgl32.Ident4()); got.Dual != (mgl32.Quat{}) {
		t.Errorf("FromMatrix(I).Dual=%v; expected exactly zero", got.Dual)
	}
}

func TestToDualQuatFormula(t *testing.T) {
	q := mgl32.Quat{W: 0.5, V: mgl32.Vec3{0.5, 0.5, 0.5}}
	tr := mgl32.Vec3{2, -3, 4}
	got := ToDualQuat(q, tr).Dual
	// d.x = 0.5*( 2*0.5 + -3*0.5 - 4*0.5) = -1.25
	// d.y = 0.5*(-2*0.5 + -3*0.5 + 4*0.5) = -0.25
	// d.z = 0.5*( 2*0.5 - -3*0.5 + 4*0.5) =  2.25
	// d.w = -0.5*(2*0.5 + -3*0.5 + 4*0.5) = -0.75
	want := mgl32.Quat{W: -0.75, V: mgl32.Vec3{-1.25, -0.25, 2.25}}
	if !got.ApproxEqualThreshold(want, eps) {
		t.Errorf("ToDualQuat(q, t).Dual=%v; expected %v", got, want)
	}
}

func TestFromMatrixMatchesRigidTransform(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3D(0.8, mgl32.Vec3{0, 1, 1}.Normalize()))
	dq := FromMatrix(m)
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, -2, 5}} {
		want := m.Mul4x1(p.Vec4(1)).Vec3()
		if got := dq.Transform(p); !got.ApproxEqualThreshold(want, 1e-4) {
			t.Errorf("FromMatrix(m).Transform(%v)=%v; expected %v", p, got, want)
		}
	}
	if got := dq.Translation(); !got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 3}, 1e-4) {
		t.Errorf("Translation()=%v; expected (1,2,3)", got)
	}
}

func TestFromMatrixDiscardsScale(t *testing.T) {
	scaled := FromMatrix(mgl32.Translate3D(0, 4, 0).Mul4(mgl32.Scale3D(3, 3, 3)))
	plain := FromMatrix(mgl32.Translate3D(0, 4, 0))
	if !scaled.Real.ApproxEqualThreshold(plain.Real, eps) || !scaled.Dual.ApproxEqualThreshold(plain.Dual, eps) {
		t.Errorf("FromMatrix(T*S)=%v; expected scale-free %v", scaled, plain)
	}
}

func TestGPUDualQuatMarshal(t *testing.T) {
	g := ToDualQuat(mgl32.QuatIdent(), mgl32.Vec3{2, 0, 0}).GPU()
	buf := g.Marshal()
	if len(buf) != g.Size() {
		t.Fatalf("len(Marshal())=%d; expected %d", len(buf), g.Size())
	}
	if w := math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])); w != 1 {
		t.Errorf("Real.w=%v; expected 1", w)
	}
	if dx := math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])); dx != 1 {
		t.Errorf("Dual.x=%v; expected 1", dx)
	}
}

type matrices []mgl32.Mat4

func (m matrices) SkinningMatrix(f uint32) mgl32.Mat4 { return m[f] }

type parityTarget struct {
	providers [][2]bind_group_provider.BindGroupProvider
}

func (p *parityTarget) BoneProvider(mesh int, parity uint32) bind_group_provider.BindGroupProvider {
	return p.providers[mesh][parity]
}

func TestAnimatorStagesPalettePerParity(t *testing.T) {
	target := &parityTarget{providers: [][2]bind_group_provider.BindGroupProvider{
		{bind_group_provider.NewBindGroupProvider("body/0"), bind_group_provider.NewBindGroupProvider("body/1")},
		{bind_group_provider.NewBindGroupProvider("cape/0"), bind_group_provider.NewBindGroupProvider("cape/1")},
	}}
	a := NewAnimator(
		WithMeshInfluences([]uint32{0, 2}, []uint32{1}),
		WithBoneTarget(target, 3),
	)
	pose := matrices{mgl32.Ident4(), mgl32.Translate3D(0, 1, 0), mgl32.Translate3D(5, 0, 0)}

	a.Update(pose, 1)
	writes := a.StagedWriteData()
	if len(writes) != 2 {
		t.Fatalf("len(StagedWriteData())=%d; expected 2", len(writes))
	}
	for m, w := range writes {
		if w.Provider != target.providers[m][1] {
			t.Errorf("write %d provider=%s; expected %s", m, w.Provider.Label(), target.providers[m][1].Label())
		}
		if w.Binding != 3 || w.Offset != 0 {
			t.Errorf("write %d binding/offset=%d/%d; expected 3/0", m, w.Binding, w.Offset)
		}
		if len(w.Data) != a.PaletteSize(m)*32 {
			t.Errorf("write %d len=%d; expected %d", m, len(w.Data), a.PaletteSize(m)*32)
		}
	}
	if got := a.Palette(0)[1].Dual[0]; got != 2.5 {
		t.Errorf("Palette(0)[1].Dual.x=%v; expected 2.5", got)
	}
	if n := len(a.StagedWriteData()); n != 0 {
		t.Errorf("second drain returned %d writes; expected 0", n)
	}
}

func TestAnimatorWithoutTargetStagesNothing(t *testing.T) {
	a := NewAnimator(WithMeshInfluences([]uint32{0}))
	if got := a.Palette(0)[0]; got != IdentityDualQuat().GPU() {
		t.Errorf("initial palette=%v; expected identity", got)
	}
	a.Update(matrices{mgl32.Translate3D(0, 0, 1)}, 0)
	if n := len(a.StagedWriteData()); n != 0 {
		t.Errorf("len(StagedWriteData())=%d; expected 0", n)
	}
}
