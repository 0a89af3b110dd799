package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is the half-space dot(Normal, p) + D >= 0. Points with a negative
// signed distance are outside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// PlaneFromPointNormal builds the plane through p facing along n.
func PlaneFromPointNormal(p, n mgl32.Vec3) Plane {
	return Plane{Normal: n, D: -n.Dot(p)}
}

// DistanceTo returns the signed distance from p to the plane.
func (pl Plane) DistanceTo(p mgl32.Vec3) float32 {
	return pl.Normal.Dot(p) + pl.D
}

// Negate flips the half-space.
func (pl Plane) Negate() Plane {
	return Plane{Normal: pl.Normal.Mul(-1), D: -pl.D}
}
