package decal

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/config"
	"skindecal/internal/geom"
	"skindecal/internal/profiling"
)

// Vertex is one emitted decal mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Bones    [geom.MaxBoneInfluences]geom.SkinWeight
}

// Mesh accumulates the triangles emitted for one receiving surface during a
// decal run. It is built on the worker-fed orchestrating goroutine and
// finalized exactly once, on the goroutine owning render resources.
type Mesh struct {
	SurfaceID uint64
	Material  MaterialID

	Vertices []Vertex
	Indices  []uint32

	finalized bool
}

// Uploader publishes an assembled mesh as a renderable resource. The GL
// implementation lives in internal/graphics/decals; tests use fakes.
type Uploader interface {
	Upload(*Mesh) error
}

// Finalize publishes the mesh through the uploader. Calling it twice is a
// pipeline bug.
func (m *Mesh) Finalize(up Uploader) error {
	if m.finalized {
		return fmt.Errorf("decal: mesh for surface %d finalized twice", m.SurfaceID)
	}
	m.finalized = true
	if up == nil {
		return nil
	}
	return up.Upload(m)
}

// TriangleCount returns the number of assembled triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Area sums the world-space area of the assembled triangles.
func (m *Mesh) Area() float32 {
	var sum float32
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Vertices[m.Indices[i]].Position
		b := m.Vertices[m.Indices[i+1]].Position
		c := m.Vertices[m.Indices[i+2]].Position
		sum += b.Sub(a).Cross(c.Sub(a)).Len()
	}
	return sum / 2
}

// Assembler fan-triangulates surviving polygons into per-surface meshes.
// Meshes are created lazily the first time a surface contributes.
type Assembler struct {
	material MaterialID
	meshes   map[uint64]*Mesh
	order    []uint64
}

// NewAssembler creates an assembler emitting meshes with the projector's
// target material.
func NewAssembler(material MaterialID) *Assembler {
	return &Assembler{
		material: material,
		meshes:   make(map[uint64]*Mesh),
	}
}

// AppendPolygons fan-triangulates the surviving polygons of one surface and
// appends them to that surface's mesh. Vertex positions are nudged along the
// decal normal to avoid z-fighting; UVs come from the decal-space projection.
func (a *Assembler) AppendPolygons(surfaceID uint64, polys []*geom.ConvexPolygon, pr *Projection) {
	defer profiling.Track("decal.AppendPolygons")()

	if len(polys) == 0 {
		return
	}
	mesh, ok := a.meshes[surfaceID]
	if !ok {
		mesh = &Mesh{SurfaceID: surfaceID, Material: a.material}
		a.meshes[surfaceID] = mesh
		a.order = append(a.order, surfaceID)
	}

	offset := pr.Space.Normal.Mul(config.GetSurfaceOffset())
	for _, poly := range polys {
		base := uint32(len(mesh.Vertices))
		n := poly.VertexCount()
		for i := 0; i < n; i++ {
			v := poly.Vertex(i)
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: v.Position.Add(offset),
				Normal:   v.Normal,
				UV:       pr.UV(v.Position),
				Bones:    v.Bones,
			})
		}
		for i := 1; i < n-1; i++ {
			mesh.Indices = append(mesh.Indices, base, base+uint32(i), base+uint32(i+1))
		}
	}
}

// Meshes returns the accumulated meshes in surface-contribution order.
func (a *Assembler) Meshes() []*Mesh {
	out := make([]*Mesh, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.meshes[id])
	}
	return out
}

// MeshFor returns the mesh for one surface, or nil.
func (a *Assembler) MeshFor(surfaceID uint64) *Mesh {
	return a.meshes[surfaceID]
}
