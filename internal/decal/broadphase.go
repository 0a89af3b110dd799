package decal

import (
	"skindecal/internal/config"
	"skindecal/internal/geom"
)

// BroadPhase cheaply rejects polygons that cannot intersect the projection
// box before the six-plane narrow phase runs. It returns an outside mask
// parallel to polys: marked polygons are excluded from all further passes.
//
// Two tests: bounding sphere vs the box's bounding sphere, and a backface
// test against the decal normal unless the projector stamps backsides too.
func BroadPhase(polys []*geom.ConvexPolygon, pr *Projection) []bool {
	outside := make([]bool, len(polys))
	boxRadius := pr.BoundingRadius()
	cutoff := config.GetBackfaceCutoff()

	for i, poly := range polys {
		if !pr.Backside && poly.Normal().Dot(pr.Space.Normal) <= cutoff {
			outside[i] = true
			continue
		}
		sep := poly.Centroid().Sub(pr.Center).Len()
		if sep > poly.BoundingRadius()+boxRadius {
			outside[i] = true
		}
	}
	return outside
}

// ClipSurvivors runs broad phase then narrow phase over a run's polygon
// copies, mutating them in place, and returns the surviving polygons.
func ClipSurvivors(polys []*geom.ConvexPolygon, pr *Projection) []*geom.ConvexPolygon {
	outside := BroadPhase(polys, pr)
	survivors := polys[:0]
	for i, poly := range polys {
		if outside[i] {
			continue
		}
		if !pr.ClipPolygon(poly) {
			continue
		}
		if poly.VertexCount() < 3 {
			continue
		}
		survivors = append(survivors, poly)
	}
	return survivors
}
