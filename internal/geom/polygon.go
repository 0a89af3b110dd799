package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxPolygonVerts is the fixed vertex capacity of a ConvexPolygon. A triangle
// clipped against the six projector planes gains at most one net vertex per
// plane, so 12 leaves headroom; exceeding it is a sizing bug and panics.
const MaxPolygonVerts = 12

const rayEpsilon = 1e-6

// ConvexPolygon is a mutable planar n-gon stored in fixed-size buffers.
// Vertex order is winding order. The face normal is computed once at
// construction and stays valid under clipping, since every clip result is a
// sub-region of the original plane. A polygon clipped below three vertices is
// destroyed and must be discarded by the caller.
type ConvexPolygon struct {
	verts  [MaxPolygonVerts]VertexAttr
	edges  [MaxPolygonVerts]Edge
	count  int
	normal mgl32.Vec3
}

// NewConvexPolygon builds a polygon from at least three vertices given in
// winding order. The face normal comes from the first three vertices.
func NewConvexPolygon(verts ...VertexAttr) *ConvexPolygon {
	if len(verts) < 3 {
		panic(fmt.Sprintf("geom: polygon needs >= 3 vertices, got %d", len(verts)))
	}
	if len(verts) > MaxPolygonVerts {
		panic(fmt.Sprintf("geom: polygon vertex count %d exceeds capacity %d", len(verts), MaxPolygonVerts))
	}
	p := &ConvexPolygon{count: len(verts)}
	copy(p.verts[:], verts)
	n := verts[1].Position.Sub(verts[0].Position).Cross(verts[2].Position.Sub(verts[0].Position))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	p.normal = n
	p.rebuildEdges()
	return p
}

// Clone returns an independent deep copy. Buffers are fixed-size arrays, so a
// value copy aliases nothing.
func (p *ConvexPolygon) Clone() *ConvexPolygon {
	cp := *p
	return &cp
}

// VertexCount returns the current number of vertices.
func (p *ConvexPolygon) VertexCount() int { return p.count }

// Vertex returns the vertex at index i in winding order.
func (p *ConvexPolygon) Vertex(i int) VertexAttr { return p.verts[i] }

// Edge returns the directed edge from vertex i to vertex (i+1) mod count.
func (p *ConvexPolygon) Edge(i int) Edge { return p.edges[i] }

// Normal returns the cached face normal.
func (p *ConvexPolygon) Normal() mgl32.Vec3 { return p.normal }

// Centroid returns the vertex average.
func (p *ConvexPolygon) Centroid() mgl32.Vec3 {
	var c mgl32.Vec3
	for i := 0; i < p.count; i++ {
		c = c.Add(p.verts[i].Position)
	}
	return c.Mul(1 / float32(p.count))
}

// BoundingRadius returns the largest vertex distance from the centroid.
func (p *ConvexPolygon) BoundingRadius() float32 {
	c := p.Centroid()
	var r float32
	for i := 0; i < p.count; i++ {
		if d := p.verts[i].Position.Sub(c).Len(); d > r {
			r = d
		}
	}
	return r
}

func (p *ConvexPolygon) rebuildEdges() {
	for i := 0; i < p.count; i++ {
		p.edges[i] = makeEdge(p.verts[i], p.verts[(i+1)%p.count])
	}
}

// SplitAndRemoveByPlane clips the polygon in place against pl, removing the
// vertices on the negative side. It reports true when every vertex is outside;
// the polygon is then left untouched and the caller discards it. When no
// vertex is outside the call is a no-op.
//
// A convex polygon cut by one plane has exactly one contiguous outside run,
// so exactly two edges cross the plane; the run is replaced by the two
// crossing vertices, preserving winding order.
func (p *ConvexPolygon) SplitAndRemoveByPlane(pl Plane) (fullyOutside bool) {
	var dist [MaxPolygonVerts]float32
	outside := 0
	for i := 0; i < p.count; i++ {
		dist[i] = pl.DistanceTo(p.verts[i].Position)
		if dist[i] < 0 {
			outside++
		}
	}
	if outside == 0 {
		return false
	}
	if outside == p.count {
		return true
	}

	// First outside vertex whose predecessor is inside starts the run.
	start := -1
	for i := 0; i < p.count; i++ {
		prev := (i + p.count - 1) % p.count
		if dist[i] < 0 && dist[prev] >= 0 {
			start = i
			break
		}
	}
	last := (start + outside - 1) % p.count
	entry := (start + p.count - 1) % p.count // inside vertex before the run
	exit := (last + 1) % p.count             // inside vertex after the run

	// Crossing parameter measured from the surviving endpoint:
	// dist(in + t*(out-in)) = 0  =>  t = d_in / (d_in - d_out).
	ta := dist[entry] / (dist[entry] - dist[start])
	tb := dist[exit] / (dist[exit] - dist[last])
	va := lerpVertex(p.verts[entry], p.verts[start], ta)
	vb := lerpVertex(p.verts[exit], p.verts[last], tb)

	inside := p.count - outside
	if inside+2 > MaxPolygonVerts {
		panic(fmt.Sprintf("geom: split would produce %d vertices, capacity %d", inside+2, MaxPolygonVerts))
	}

	// Rebuild the ring starting at the first surviving vertex; this also
	// handles a run that wraps past index 0.
	var next [MaxPolygonVerts]VertexAttr
	n := 0
	for i := exit; ; i = (i + 1) % p.count {
		next[n] = p.verts[i]
		n++
		if i == entry {
			break
		}
	}
	next[n] = va
	n++
	next[n] = vb
	n++

	p.count = n
	copy(p.verts[:n], next[:n])
	p.rebuildEdges()
	return false
}

// RayIntersect intersects a ray with the polygon's plane and reports the hit
// point when it lies inside the polygon. Valid only for triangles; any other
// vertex count fails.
func (p *ConvexPolygon) RayIntersect(origin, dir mgl32.Vec3) (mgl32.Vec3, bool) {
	if p.count != 3 {
		return mgl32.Vec3{}, false
	}
	denom := dir.Dot(p.normal)
	if float32(math.Abs(float64(denom))) < rayEpsilon {
		return mgl32.Vec3{}, false
	}
	t := p.normal.Dot(p.verts[0].Position.Sub(origin)) / denom
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	hit := origin.Add(dir.Mul(t))
	// Inside when the edge-tangent crosses to the hit point all agree with
	// the face normal.
	for i := 0; i < 3; i++ {
		c := p.edges[i].Delta.Cross(hit.Sub(p.verts[i].Position))
		if c.Dot(p.normal) < 0 {
			return mgl32.Vec3{}, false
		}
	}
	return hit, true
}

// Area returns the polygon area via the fan cross-product sum.
func (p *ConvexPolygon) Area() float32 {
	var sum float32
	for i := 1; i < p.count-1; i++ {
		a := p.verts[i].Position.Sub(p.verts[0].Position)
		b := p.verts[i+1].Position.Sub(p.verts[0].Position)
		sum += a.Cross(b).Len()
	}
	return sum / 2
}
