package main

import (
	"log"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"skindecal/internal/decal"
	"skindecal/internal/geom"
	"skindecal/internal/graphics"
	"skindecal/internal/graphics/decals"
	"skindecal/internal/pipeline"
	"skindecal/internal/profiling"
)

func init() {
	runtime.LockOSThread()
}

const (
	windowWidth  = 900
	windowHeight = 600

	groundSize = 2.0
	groundRes  = 48
)

const groundVertSrc = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uView;
uniform mat4 uProj;

out vec3 vNormal;

void main() {
    vNormal = aNormal;
    gl_Position = uProj * uView * vec4(aPos, 1.0);
}
`

const groundFragSrc = `#version 410 core
in vec3 vNormal;

out vec4 FragColor;

void main() {
    float light = max(dot(normalize(vNormal), normalize(vec3(0.3, 0.4, 0.85))), 0.2);
    FragColor = vec4(vec3(0.45, 0.5, 0.55) * light, 1.0);
}
`

func main() {
	if err := glfw.Init(); err != nil {
		closer.Fatalln("glfw init:", err)
	}
	closer.Bind(glfw.Terminate)
	defer closer.Close()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "skindecal viewer", nil, nil)
	if err != nil {
		closer.Fatalln("create window:", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		closer.Fatalln("gl init:", err)
	}
	gl.Enable(gl.DEPTH_TEST)

	// Receiving surface: a rippled ground patch.
	soup := buildGroundSoup()
	surface, err := decal.NewSurface(soup)
	if err != nil {
		closer.Fatalln("surface:", err)
	}

	ground, err := newGroundRenderer(soup)
	if err != nil {
		closer.Fatalln("ground renderer:", err)
	}
	closer.Bind(ground.Dispose)

	decalRenderer, err := decals.NewRenderer()
	if err != nil {
		closer.Fatalln("decal renderer:", err)
	}
	closer.Bind(decalRenderer.Dispose)

	sys := pipeline.NewSystem(decalRenderer)
	closer.Bind(sys.Shutdown)

	// Drop one decal in the middle at startup; space stamps more at random
	// spots.
	stamp := func(x, y float32) {
		proj := decal.NewProjector(mgl32.Vec3{x, y, 0.5}, mgl32.QuatIdent(), 0.6, 0.6, 1)
		proj.Material = 1
		proj.Surfaces = []*decal.Surface{surface}
		sys.RequestLaunch(proj, func(meshes []*decal.Mesh) {
			tris := 0
			for _, m := range meshes {
				tris += m.TriangleCount()
			}
			log.Printf("decal at (%.2f, %.2f): %d triangles", x, y, tris)
		})
	}
	stamp(groundSize/2, groundSize/2)

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			stamp(0.4+rand.Float32()*(groundSize-0.8), 0.4+rand.Float32()*(groundSize-0.8))
		}
	})

	proj := mgl32.Perspective(mgl32.DegToRad(45), float32(windowWidth)/windowHeight, 0.1, 50)
	view := mgl32.LookAtV(
		mgl32.Vec3{groundSize * 1.3, -groundSize * 0.8, 2.2},
		mgl32.Vec3{groundSize / 2, groundSize / 2, 0},
		mgl32.Vec3{0, 0, 1},
	)

	for !window.ShouldClose() {
		profiling.ResetFrame()
		startTick := time.Now()

		glfw.PollEvents()
		sys.Tick()

		gl.ClearColor(0.08, 0.09, 0.11, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		ground.Render(view, proj)
		decalRenderer.Render(view, proj)

		window.SwapBuffers()

		if d := time.Since(startTick); d > 16*time.Millisecond {
			log.Printf("Slow frame: %v. Top tasks: %s", d, profiling.TopN(5))
		}
	}
}

// groundHeight is the ripple profile of the demo surface.
func groundHeight(x, y float32) float32 {
	return 0.08 * float32(math.Sin(float64(x)*3.1)*math.Cos(float64(y)*2.7))
}

func groundNormal(x, y float32) mgl32.Vec3 {
	const h = 1e-3
	dx := (groundHeight(x+h, y) - groundHeight(x-h, y)) / (2 * h)
	dy := (groundHeight(x, y+h) - groundHeight(x, y-h)) / (2 * h)
	return mgl32.Vec3{-dx, -dy, 1}.Normalize()
}

func groundVertex(x, y float32) geom.VertexAttr {
	return geom.VertexAttr{
		Position: mgl32.Vec3{x, y, groundHeight(x, y)},
		Normal:   groundNormal(x, y),
	}
}

// buildGroundSoup emits the rippled patch as a triangle soup.
func buildGroundSoup() []geom.VertexAttr {
	step := float32(groundSize) / groundRes
	soup := make([]geom.VertexAttr, 0, groundRes*groundRes*6)
	for i := 0; i < groundRes; i++ {
		for j := 0; j < groundRes; j++ {
			x0, y0 := float32(i)*step, float32(j)*step
			x1, y1 := x0+step, y0+step
			a, b := groundVertex(x0, y0), groundVertex(x1, y0)
			c, d := groundVertex(x1, y1), groundVertex(x0, y1)
			soup = append(soup, a, b, c, a, c, d)
		}
	}
	return soup
}

type groundRenderer struct {
	shader *graphics.Shader
	vao    uint32
	vbo    uint32
	count  int32
}

func newGroundRenderer(soup []geom.VertexAttr) (*groundRenderer, error) {
	shader, err := graphics.NewShader(groundVertSrc, groundFragSrc)
	if err != nil {
		return nil, err
	}
	g := &groundRenderer{shader: shader, count: int32(len(soup))}

	verts := make([]float32, 0, len(soup)*6)
	for _, v := range soup {
		verts = append(verts,
			v.Position.X(), v.Position.Y(), v.Position.Z(),
			v.Normal.X(), v.Normal.Y(), v.Normal.Z(),
		)
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)
	gl.BindVertexArray(0)
	return g, nil
}

func (g *groundRenderer) Render(view, proj mgl32.Mat4) {
	g.shader.Use()
	g.shader.SetMatrix4("uView", &view[0])
	g.shader.SetMatrix4("uProj", &proj[0])
	gl.BindVertexArray(g.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, g.count)
	gl.BindVertexArray(0)
}

func (g *groundRenderer) Dispose() {
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	g.shader.Dispose()
}
