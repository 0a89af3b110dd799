package skin

import (
	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/geom"
)

// Palette is a bone-index-addressed snapshot of skinning transforms for one
// receiving surface, taken once per decal run.
type Palette []mgl32.Mat4

// Identity returns a palette of n identity transforms.
func Identity(n int) Palette {
	p := make(Palette, n)
	for i := range p {
		p[i] = mgl32.Ident4()
	}
	return p
}

// BlendMatrix accumulates the weighted bone transforms for one vertex.
// Slots with zero weight or out-of-range bone indices contribute nothing.
func (p Palette) BlendMatrix(bones [geom.MaxBoneInfluences]geom.SkinWeight) mgl32.Mat4 {
	var m mgl32.Mat4
	any := false
	for _, sw := range bones {
		if sw.Weight == 0 || int(sw.Bone) < 0 || int(sw.Bone) >= len(p) {
			continue
		}
		bm := p[sw.Bone].Mul(sw.Weight)
		if !any {
			m = bm
			any = true
		} else {
			m = m.Add(bm)
		}
	}
	if !any {
		return mgl32.Ident4()
	}
	return m
}

// TransformVertex poses one vertex attribute through the palette. The normal
// is rotated by the blend matrix's upper 3x3 and renormalized.
func (p Palette) TransformVertex(v geom.VertexAttr) geom.VertexAttr {
	m := p.BlendMatrix(v.Bones)
	out := v
	out.Position = mgl32.TransformCoordinate(v.Position, m)
	n := mgl32.TransformNormal(v.Normal, m)
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	out.Normal = n
	return out
}

// BakePolygons poses template polygons into world space, returning freshly
// constructed copies. Face normals are recomputed from the posed vertices;
// the templates are never mutated. A nil palette is treated as a bind pose.
func BakePolygons(templates []*geom.ConvexPolygon, p Palette) []*geom.ConvexPolygon {
	out := make([]*geom.ConvexPolygon, 0, len(templates))
	for _, tpl := range templates {
		if p == nil {
			out = append(out, tpl.Clone())
			continue
		}
		verts := make([]geom.VertexAttr, tpl.VertexCount())
		for i := range verts {
			verts[i] = p.TransformVertex(tpl.Vertex(i))
		}
		out = append(out, geom.NewConvexPolygon(verts...))
	}
	return out
}
