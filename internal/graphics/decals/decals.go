package decals

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/decal"
	"skindecal/internal/graphics"
	"skindecal/internal/profiling"
)

const vertexShaderSrc = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uView;
uniform mat4 uProj;

out vec3 vNormal;
out vec2 vUV;

void main() {
    vNormal = aNormal;
    vUV = aUV;
    gl_Position = uProj * uView * vec4(aPos, 1.0);
}
`

const fragmentShaderSrc = `#version 410 core
in vec3 vNormal;
in vec2 vUV;

uniform vec3 uTint;

out vec4 FragColor;

void main() {
    float light = max(dot(normalize(vNormal), normalize(vec3(0.3, 0.4, 0.85))), 0.25);
    // Fade toward the decal's UV border so clipped edges stay soft.
    vec2 edge = min(vUV, 1.0 - vUV);
    float fade = clamp(min(edge.x, edge.y) * 8.0, 0.0, 1.0);
    FragColor = vec4(uTint * light, fade);
}
`

// floats per vertex: position(3) + normal(3) + uv(2). Bone weights stay on
// the CPU side; the demo renders posed geometry directly.
const vertexStride = 8

type glMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	material   decal.MaterialID
}

// Renderer uploads finalized decal meshes into GL buffers and draws them.
// It implements decal.Uploader and must only be used from the thread owning
// the GL context.
type Renderer struct {
	shader *graphics.Shader
	meshes []glMesh
}

// NewRenderer compiles the decal shader. Call with a current GL context.
func NewRenderer() (*Renderer, error) {
	shader, err := graphics.NewShader(vertexShaderSrc, fragmentShaderSrc)
	if err != nil {
		return nil, err
	}
	return &Renderer{shader: shader}, nil
}

// Upload publishes one assembled decal mesh as a VAO. This is the finalize
// step of a decal run and runs on the render thread.
func (r *Renderer) Upload(m *decal.Mesh) error {
	defer profiling.Track("decals.Upload")()

	verts := make([]float32, 0, len(m.Vertices)*vertexStride)
	for _, v := range m.Vertices {
		verts = append(verts,
			v.Position.X(), v.Position.Y(), v.Position.Z(),
			v.Normal.X(), v.Normal.Y(), v.Normal.Z(),
			v.UV.X(), v.UV.Y(),
		)
	}

	var gm glMesh
	gm.material = m.Material
	gm.indexCount = int32(len(m.Indices))

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride*4, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride*4, 6*4)

	gl.BindVertexArray(0)

	r.meshes = append(r.meshes, gm)
	return nil
}

// MeshCount returns the number of uploaded decal meshes.
func (r *Renderer) MeshCount() int { return len(r.meshes) }

// Render draws all uploaded decal meshes.
func (r *Renderer) Render(view, proj mgl32.Mat4) {
	if len(r.meshes) == 0 {
		return
	}
	defer profiling.Track("decals.Render")()

	r.shader.Use()
	r.shader.SetMatrix4("uView", &view[0])
	r.shader.SetMatrix4("uProj", &proj[0])
	r.shader.SetVector3("uTint", 0.9, 0.2, 0.15)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	// Decals sit a fixed offset above the surface; depth writes would
	// punch holes into later transparent draws.
	gl.DepthMask(false)

	for i := range r.meshes {
		gl.BindVertexArray(r.meshes[i].vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, r.meshes[i].indexCount, gl.UNSIGNED_INT, 0)
	}
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

// Dispose releases all GL resources.
func (r *Renderer) Dispose() {
	for i := range r.meshes {
		gl.DeleteVertexArrays(1, &r.meshes[i].vao)
		gl.DeleteBuffers(1, &r.meshes[i].vbo)
		gl.DeleteBuffers(1, &r.meshes[i].ebo)
	}
	r.meshes = nil
	if r.shader != nil {
		r.shader.Dispose()
	}
}
