package decal

import (
	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/geom"
)

// Space is the orthonormal decal coordinate frame. Tangent maps to U,
// bitangent to V, and the normal points out of the receiving surface,
// opposite the projector's forward axis.
type Space struct {
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
	Normal    mgl32.Vec3
}

// NewSpace derives the decal frame from a projector rotation. Forward is the
// rotated -Z axis, so an identity-rotation projector stamps downward-facing
// geometry from above.
func NewSpace(rot mgl32.Quat) Space {
	return Space{
		Tangent:   rot.Rotate(mgl32.Vec3{1, 0, 0}),
		Bitangent: rot.Rotate(mgl32.Vec3{0, 1, 0}),
		Normal:    rot.Rotate(mgl32.Vec3{0, 0, 1}),
	}
}

// Forward returns the projection direction (into the surface).
func (s Space) Forward() mgl32.Vec3 { return s.Normal.Mul(-1) }

// Plane order in a Projection's clip set.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// Projection is a fully constructed projector volume: the decal frame, the
// box center and extents, and the six inward-facing clip planes. Interior
// points satisfy dist >= 0 for all six.
type Projection struct {
	Space    Space
	Center   mgl32.Vec3
	Width    float32
	Height   float32
	Depth    float32
	Backside bool

	Planes [6]geom.Plane
}

// NewProjection builds the projection volume for a projector. The box spans
// from the projector position along its forward axis to depth.
func NewProjection(p *Projector) Projection {
	sp := NewSpace(p.Rotation)
	fwd := sp.Forward()
	center := p.Position.Add(fwd.Mul(p.Depth / 2))

	pr := Projection{
		Space:    sp,
		Center:   center,
		Width:    p.Width,
		Height:   p.Height,
		Depth:    p.Depth,
		Backside: p.ProjectBackside,
	}
	hw, hh := p.Width/2, p.Height/2
	pr.Planes[PlaneLeft] = geom.PlaneFromPointNormal(center.Sub(sp.Tangent.Mul(hw)), sp.Tangent)
	pr.Planes[PlaneRight] = geom.PlaneFromPointNormal(center.Add(sp.Tangent.Mul(hw)), sp.Tangent.Mul(-1))
	pr.Planes[PlaneBottom] = geom.PlaneFromPointNormal(center.Sub(sp.Bitangent.Mul(hh)), sp.Bitangent)
	pr.Planes[PlaneTop] = geom.PlaneFromPointNormal(center.Add(sp.Bitangent.Mul(hh)), sp.Bitangent.Mul(-1))
	pr.Planes[PlaneNear] = geom.PlaneFromPointNormal(p.Position, fwd)
	pr.Planes[PlaneFar] = geom.PlaneFromPointNormal(p.Position.Add(fwd.Mul(p.Depth)), sp.Normal)
	return pr
}

// Contains reports whether a world point is inside the projection box.
func (pr *Projection) Contains(p mgl32.Vec3) bool {
	for i := range pr.Planes {
		if pr.Planes[i].DistanceTo(p) < 0 {
			return false
		}
	}
	return true
}

// BoundingRadius returns the radius of the sphere enclosing the box.
func (pr *Projection) BoundingRadius() float32 {
	half := mgl32.Vec3{pr.Width / 2, pr.Height / 2, pr.Depth / 2}
	return half.Len()
}

// UV projects a world point into normalized decal texture coordinates;
// points inside the box land in [0,1]^2.
func (pr *Projection) UV(p mgl32.Vec3) mgl32.Vec2 {
	rel := p.Sub(pr.Center)
	return mgl32.Vec2{
		pr.Space.Tangent.Dot(rel)/pr.Width + 0.5,
		pr.Space.Bitangent.Dot(rel)/pr.Height + 0.5,
	}
}

// ClipPolygon runs the six-plane narrow phase on one polygon in place.
// It reports false when the polygon ends up fully outside the volume.
func (pr *Projection) ClipPolygon(poly *geom.ConvexPolygon) bool {
	for i := range pr.Planes {
		if poly.SplitAndRemoveByPlane(pr.Planes[i]) {
			return false
		}
	}
	return true
}
