package decal

import (
	"sync"

	"skindecal/internal/geom"
)

// Pool caches the convex-polygon templates extracted from each surface's
// base geometry. Extraction runs once per surface; templates are immutable
// and every decal run clips its own deep copies.
type Pool struct {
	mu      sync.Mutex
	entries map[uint64][]*geom.ConvexPolygon
}

// NewPool creates an empty polygon pool.
func NewPool() *Pool {
	return &Pool{entries: make(map[uint64][]*geom.ConvexPolygon)}
}

// PolygonsFor returns the template polygons for a surface, extracting them
// from the triangle soup on first use.
func (p *Pool) PolygonsFor(s *Surface) []*geom.ConvexPolygon {
	p.mu.Lock()
	defer p.mu.Unlock()
	if polys, ok := p.entries[s.ID()]; ok {
		return polys
	}
	polys := make([]*geom.ConvexPolygon, 0, s.TriangleCount())
	for i := 0; i < s.TriangleCount(); i++ {
		a, b, c := s.Triangle(i)
		polys = append(polys, geom.NewConvexPolygon(a, b, c))
	}
	p.entries[s.ID()] = polys
	return polys
}

// Release drops a surface's cached templates, e.g. after destruction.
func (p *Pool) Release(s *Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, s.ID())
}

// ClonePolygons deep-copies a template list for one run, so concurrent runs
// never alias mutable clip state.
func ClonePolygons(src []*geom.ConvexPolygon) []*geom.ConvexPolygon {
	out := make([]*geom.ConvexPolygon, len(src))
	for i, poly := range src {
		out[i] = poly.Clone()
	}
	return out
}
