// decaldump runs the full clip/assemble path headlessly and rasterizes the
// resulting decal mesh in decal space to a WebP image. Useful for eyeballing
// clip results without a GL context.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"log"
	"math"
	"os"
	"time"

	_ "github.com/ftrvxmtrx/tga"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"skindecal/internal/decal"
	"skindecal/internal/geom"
	"skindecal/internal/skin"
)

const stampSize = 256

func main() {
	var (
		out      = flag.String("o", "decal.webp", "output WebP path")
		size     = flag.Int("size", 512, "output image size in pixels")
		stamp    = flag.String("stamp", "", "optional PNG/TGA stamp texture to modulate the decal")
		width    = flag.Float64("width", 0.6, "projector box width")
		height   = flag.Float64("height", 0.6, "projector box height")
		depth    = flag.Float64("depth", 1.0, "projector box depth")
		px       = flag.Float64("x", 1.0, "projector x")
		py       = flag.Float64("y", 1.0, "projector y")
		pz       = flag.Float64("z", 0.5, "projector z")
		yaw      = flag.Float64("yaw", 0, "projector yaw in degrees (about +Z)")
		backside = flag.Bool("backside", false, "project onto backfacing triangles")
	)
	flag.Parse()

	surface, err := decal.NewSurface(buildGroundSoup())
	if err != nil {
		log.Fatalf("surface: %v", err)
	}

	rot := mgl32.QuatRotate(mgl32.DegToRad(float32(*yaw)), mgl32.Vec3{0, 0, 1})
	proj := decal.NewProjector(
		mgl32.Vec3{float32(*px), float32(*py), float32(*pz)},
		rot,
		float32(*width), float32(*height), float32(*depth),
	)
	proj.ProjectBackside = *backside
	proj.Surfaces = []*decal.Surface{surface}

	start := time.Now()
	mesh := runClip(surface, proj)
	if mesh == nil {
		log.Fatalf("projector volume clipped away the entire surface")
	}
	log.Printf("clipped %d source triangles to %d decal triangles in %v",
		surface.TriangleCount(), mesh.TriangleCount(), time.Since(start))

	var tex *image.NRGBA
	if *stamp != "" {
		tex, err = loadStamp(*stamp)
		if err != nil {
			log.Fatalf("stamp: %v", err)
		}
	}

	img := rasterize(mesh, *size, tex)
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, img, nil); err != nil {
		log.Fatalf("encode webp: %v", err)
	}
	fmt.Println("wrote", *out)
}

// runClip runs pool extraction, baking, broad/narrow phase and assembly
// synchronously for one surface.
func runClip(s *decal.Surface, p *decal.Projector) *decal.Mesh {
	pool := decal.NewPool()
	templates := pool.PolygonsFor(s)
	baked := skin.BakePolygons(templates, s.SnapshotPose())

	pr := decal.NewProjection(p)
	survivors := decal.ClipSurvivors(baked, &pr)

	asm := decal.NewAssembler(p.Material)
	asm.AppendPolygons(s.ID(), survivors, &pr)
	return asm.MeshFor(s.ID())
}

// loadStamp decodes a PNG or TGA stamp and rescales it to the working size.
func loadStamp(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, stampSize, stampSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

// rasterize draws the decal mesh in UV space. Without a stamp texture the
// fill is shaded by the interpolated surface normal.
func rasterize(m *decal.Mesh, size int, tex *image.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	// Dim checker background so the clipped silhouette reads clearly.
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := uint8(28)
			if (x/16+y/16)%2 == 0 {
				c = 36
			}
			img.SetNRGBA(x, y, color.NRGBA{c, c, c, 255})
		}
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		v0 := m.Vertices[m.Indices[i]]
		v1 := m.Vertices[m.Indices[i+1]]
		v2 := m.Vertices[m.Indices[i+2]]
		fillTriangle(img, size, v0, v1, v2, tex)
	}
	return img
}

// fillTriangle rasterizes one UV-space triangle with barycentric
// interpolation over the bounding box.
func fillTriangle(img *image.NRGBA, size int, v0, v1, v2 decal.Vertex, tex *image.NRGBA) {
	fs := float32(size)
	x0, y0 := v0.UV.X()*fs, (1-v0.UV.Y())*fs
	x1, y1 := v1.UV.X()*fs, (1-v1.UV.Y())*fs
	x2, y2 := v2.UV.X()*fs, (1-v2.UV.Y())*fs

	minX := int(math.Floor(float64(min(x0, min(x1, x2)))))
	maxX := int(math.Ceil(float64(max(x0, max(x1, x2)))))
	minY := int(math.Floor(float64(min(y0, min(y1, y2)))))
	maxY := int(math.Ceil(float64(max(y0, max(y1, y2)))))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, size-1), min(maxY, size-1)

	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if area == 0 {
		return
	}
	inv := 1 / area

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cx, cy := float32(x)+0.5, float32(y)+0.5
			w0 := ((x1-cx)*(y2-cy) - (x2-cx)*(y1-cy)) * inv
			w1 := ((x2-cx)*(y0-cy) - (x0-cx)*(y2-cy)) * inv
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			n := v0.Normal.Mul(w0).Add(v1.Normal.Mul(w1)).Add(v2.Normal.Mul(w2))
			shade := n.Normalize().Dot(mgl32.Vec3{0.3, 0.4, 0.85}.Normalize())
			if shade < 0.25 {
				shade = 0.25
			}
			r, g, b := float32(0.9), float32(0.2), float32(0.15)
			if tex != nil {
				u := w0*v0.UV.X() + w1*v1.UV.X() + w2*v2.UV.X()
				v := w0*v0.UV.Y() + w1*v1.UV.Y() + w2*v2.UV.Y()
				tc := tex.NRGBAAt(int(u*float32(tex.Bounds().Dx())), int((1-v)*float32(tex.Bounds().Dy())))
				if tc.A == 0 {
					continue
				}
				r, g, b = float32(tc.R)/255, float32(tc.G)/255, float32(tc.B)/255
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(r * shade * 255),
				G: uint8(g * shade * 255),
				B: uint8(b * shade * 255),
				A: 255,
			})
		}
	}
}

// Same ripple profile as the viewer demo.
func groundHeight(x, y float32) float32 {
	return 0.08 * float32(math.Sin(float64(x)*3.1)*math.Cos(float64(y)*2.7))
}

func groundVertex(x, y float32) geom.VertexAttr {
	const h = 1e-3
	dx := (groundHeight(x+h, y) - groundHeight(x-h, y)) / (2 * h)
	dy := (groundHeight(x, y+h) - groundHeight(x, y-h)) / (2 * h)
	return geom.VertexAttr{
		Position: mgl32.Vec3{x, y, groundHeight(x, y)},
		Normal:   mgl32.Vec3{-dx, -dy, 1}.Normalize(),
	}
}

func buildGroundSoup() []geom.VertexAttr {
	const res = 48
	const extent = 2.0
	step := float32(extent) / res
	soup := make([]geom.VertexAttr, 0, res*res*6)
	for i := 0; i < res; i++ {
		for j := 0; j < res; j++ {
			x0, y0 := float32(i)*step, float32(j)*step
			x1, y1 := x0+step, y0+step
			a, b := groundVertex(x0, y0), groundVertex(x1, y0)
			c, d := groundVertex(x1, y1), groundVertex(x0, y1)
			soup = append(soup, a, b, c, a, c, d)
		}
	}
	return soup
}
