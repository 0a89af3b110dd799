package decal

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/geom"
	"skindecal/internal/skin"
)

// MaterialID is an opaque handle to an externally owned decal material.
type MaterialID uint32

var nextSurfaceID atomic.Uint64

// Surface is a receiving surface: base triangle geometry plus a pose source
// for skinned deformation. Geometry is supplied once and treated as an
// immutable template; destruction only flips the liveness flag so in-flight
// pipelines can notice and cancel.
type Surface struct {
	id uint64

	// Triangle soup in bind pose, three attributes per triangle.
	tris []geom.VertexAttr

	// PoseFunc supplies the current bone palette. Nil means the surface is
	// not skinned.
	PoseFunc func() skin.Palette

	destroyed atomic.Bool
}

// NewSurface creates a surface from a bind-pose triangle soup.
func NewSurface(tris []geom.VertexAttr) (*Surface, error) {
	if len(tris) == 0 || len(tris)%3 != 0 {
		return nil, fmt.Errorf("decal: surface triangle soup has %d vertices, want a positive multiple of 3", len(tris))
	}
	return &Surface{
		id:   nextSurfaceID.Add(1),
		tris: tris,
	}, nil
}

// ID returns the surface's unique identity.
func (s *Surface) ID() uint64 { return s.id }

// TriangleCount returns the number of base triangles.
func (s *Surface) TriangleCount() int { return len(s.tris) / 3 }

// Triangle returns the three attributes of base triangle i.
func (s *Surface) Triangle(i int) (geom.VertexAttr, geom.VertexAttr, geom.VertexAttr) {
	return s.tris[i*3], s.tris[i*3+1], s.tris[i*3+2]
}

// SnapshotPose captures the current bone palette, or nil for unskinned
// surfaces.
func (s *Surface) SnapshotPose() skin.Palette {
	if s.PoseFunc == nil {
		return nil
	}
	return s.PoseFunc()
}

// Destroy marks the surface dead. In-flight pipelines referencing it cancel
// at their next frame boundary.
func (s *Surface) Destroy() { s.destroyed.Store(true) }

// Alive reports whether the surface still exists.
func (s *Surface) Alive() bool { return !s.destroyed.Load() }

var nextProjectorID atomic.Uint64

// Projector describes one oriented decal projection box and the surfaces it
// targets. Placement and material assignment are owned by the caller.
type Projector struct {
	id uint64

	Position mgl32.Vec3
	Rotation mgl32.Quat

	Width  float32
	Height float32
	Depth  float32

	Material        MaterialID
	ProjectBackside bool

	Surfaces []*Surface

	destroyed atomic.Bool
}

// NewProjector creates a projector with the given box extents.
func NewProjector(pos mgl32.Vec3, rot mgl32.Quat, width, height, depth float32) *Projector {
	return &Projector{
		id:       nextProjectorID.Add(1),
		Position: pos,
		Rotation: rot,
		Width:    width,
		Height:   height,
		Depth:    depth,
	}
}

// ID returns the projector's unique identity.
func (p *Projector) ID() uint64 { return p.id }

// Destroy marks the projector dead; its pipeline cancels and queued launch
// requests for it are dropped.
func (p *Projector) Destroy() { p.destroyed.Store(true) }

// Alive reports whether the projector still exists.
func (p *Projector) Alive() bool { return !p.destroyed.Load() }
