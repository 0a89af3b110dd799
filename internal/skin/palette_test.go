package skin

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/geom"
)

func boneVert(x, y, z float32, bones [geom.MaxBoneInfluences]geom.SkinWeight) geom.VertexAttr {
	return geom.VertexAttr{
		Position: mgl32.Vec3{x, y, z},
		Normal:   mgl32.Vec3{0, 0, 1},
		Bones:    bones,
	}
}

func TestIdentityPaletteIsNoop(t *testing.T) {
	pal := Identity(2)
	v := boneVert(1, 2, 3, [geom.MaxBoneInfluences]geom.SkinWeight{{Bone: 1, Weight: 1}})
	out := pal.TransformVertex(v)
	if out.Position != v.Position || out.Normal != v.Normal {
		t.Fatalf("identity palette moved vertex: %+v", out)
	}
}

func TestSingleBoneTranslation(t *testing.T) {
	pal := Identity(2)
	pal[1] = mgl32.Translate3D(0, 5, 0)
	v := boneVert(1, 0, 0, [geom.MaxBoneInfluences]geom.SkinWeight{{Bone: 1, Weight: 1}})
	out := pal.TransformVertex(v)
	want := mgl32.Vec3{1, 5, 0}
	if d := out.Position.Sub(want).Len(); d > 1e-5 {
		t.Fatalf("posed position %v, want %v", out.Position, want)
	}
}

func TestHalfWeightBlend(t *testing.T) {
	pal := Identity(2)
	pal[1] = mgl32.Translate3D(0, 10, 0)
	bones := [geom.MaxBoneInfluences]geom.SkinWeight{
		{Bone: 0, Weight: 0.5},
		{Bone: 1, Weight: 0.5},
	}
	out := pal.TransformVertex(boneVert(0, 0, 0, bones))
	want := mgl32.Vec3{0, 5, 0}
	if d := out.Position.Sub(want).Len(); d > 1e-4 {
		t.Fatalf("blended position %v, want %v", out.Position, want)
	}
}

func TestBakeRecomputesFaceNormal(t *testing.T) {
	bones := [geom.MaxBoneInfluences]geom.SkinWeight{{Bone: 0, Weight: 1}}
	tpl := geom.NewConvexPolygon(
		boneVert(0, 0, 0, bones),
		boneVert(1, 0, 0, bones),
		boneVert(0, 1, 0, bones),
	)
	pal := Identity(1)
	// Rotate the whole triangle 90 degrees about X: the z=0 plane becomes the
	// y=0 plane.
	pal[0] = mgl32.HomogRotate3DX(float32(math.Pi / 2))
	baked := BakePolygons([]*geom.ConvexPolygon{tpl}, pal)
	if len(baked) != 1 {
		t.Fatalf("baked %d polygons, want 1", len(baked))
	}
	want := mgl32.Vec3{0, -1, 0}
	if d := baked[0].Normal().Sub(want).Len(); d > 1e-5 {
		t.Fatalf("baked face normal %v, want %v", baked[0].Normal(), want)
	}
	// Template untouched.
	if tpl.Normal() != (mgl32.Vec3{0, 0, 1}) {
		t.Fatalf("template face normal mutated: %v", tpl.Normal())
	}
}

func TestBakeNilPaletteClones(t *testing.T) {
	bones := [geom.MaxBoneInfluences]geom.SkinWeight{{Bone: 0, Weight: 1}}
	tpl := geom.NewConvexPolygon(
		boneVert(0, 0, 0, bones),
		boneVert(1, 0, 0, bones),
		boneVert(0, 1, 0, bones),
	)
	baked := BakePolygons([]*geom.ConvexPolygon{tpl}, nil)
	pl := geom.PlaneFromPointNormal(mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{-1, 0, 0})
	baked[0].SplitAndRemoveByPlane(pl)
	if tpl.VertexCount() != 3 {
		t.Fatalf("clipping a baked copy mutated the template")
	}
}
