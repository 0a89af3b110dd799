package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaxBoneInfluences is the number of skin-weight slots per vertex.
const MaxBoneInfluences = 4

// SkinWeight is one (bone index, influence weight) pair.
type SkinWeight struct {
	Bone   int32
	Weight float32
}

// VertexAttr carries the attributes interpolated during clipping.
type VertexAttr struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Bones    [MaxBoneInfluences]SkinWeight
}

// Edge is a directed segment between two polygon vertices. Delta caches the
// start-to-end displacement and must be rebuilt when either endpoint changes.
type Edge struct {
	Start VertexAttr
	End   VertexAttr
	Delta mgl32.Vec3
}

func makeEdge(start, end VertexAttr) Edge {
	return Edge{Start: start, End: end, Delta: end.Position.Sub(start.Position)}
}

// lerpVertex interpolates all attributes at parameter t along the segment
// from the surviving vertex a to the removed vertex b.
//
// Skin weights interpolate per slot only when both endpoints agree on the
// bone index of that slot; on a mismatch the surviving endpoint's pair is
// copied unblended. The four weights are renormalized afterwards unless the
// sum is non-positive.
func lerpVertex(a, b VertexAttr, t float32) VertexAttr {
	var out VertexAttr
	out.Position = a.Position.Add(b.Position.Sub(a.Position).Mul(t))

	n := a.Normal.Add(b.Normal.Sub(a.Normal).Mul(t))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	out.Normal = n

	var sum float32
	for i := 0; i < MaxBoneInfluences; i++ {
		if a.Bones[i].Bone == b.Bones[i].Bone {
			w := a.Bones[i].Weight + (b.Bones[i].Weight-a.Bones[i].Weight)*t
			out.Bones[i] = SkinWeight{Bone: a.Bones[i].Bone, Weight: w}
		} else {
			out.Bones[i] = a.Bones[i]
		}
		sum += out.Bones[i].Weight
	}
	if sum > 0 {
		inv := 1 / sum
		for i := 0; i < MaxBoneInfluences; i++ {
			out.Bones[i].Weight *= inv
		}
	}
	return out
}
