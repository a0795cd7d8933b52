package app

import (
	"log/slog"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/goifc/internal/lighting"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// shadow tint drawn onto the grid plane
var shadowColor = [4]uint8{0, 0, 0, 90}

// gpuMesh is one baked batch uploaded to the GPU
type gpuMesh struct {
	mesh        rl.Mesh
	shadow      *rl.Mesh // same triangles in the shadow tint, nil when not casting
	transparent bool
	center      geometry.Vector3
}

// meshCache keeps GPU meshes in step with the scene graph
type meshCache struct {
	shader   *lighting.Shader
	material rl.Material
	meshes   map[*scene.Node][]*gpuMesh
}

func newMeshCache(shader *lighting.Shader) *meshCache {
	return &meshCache{
		shader: shader,
		// Vertex colors are baked into the mesh, the default material uses them
		material: rl.LoadMaterialDefault(),
		meshes:   make(map[*scene.Node][]*gpuMesh),
	}
}

// sync uploads meshes that appeared in s and unloads those that left it
func (c *meshCache) sync(s *scene.Scene) {
	live := make(map[*scene.Node]bool)
	uploaded := 0
	for _, n := range s.Meshes() {
		live[n] = true
		if _, ok := c.meshes[n]; ok {
			continue
		}
		c.meshes[n] = c.upload(n)
		uploaded++
	}

	unloaded := 0
	for n, meshes := range c.meshes {
		if live[n] {
			continue
		}
		for _, m := range meshes {
			m.unload()
		}
		delete(c.meshes, n)
		unloaded++
	}
	if uploaded > 0 || unloaded > 0 {
		slog.Debug("synced gpu meshes", "uploaded", uploaded, "unloaded", unloaded, "total", len(c.meshes))
	}
}

func (c *meshCache) upload(n *scene.Node) []*gpuMesh {
	opaque, transparent := c.shader.Bake(n)
	var out []*gpuMesh
	for _, b := range []*lighting.Batch{opaque, transparent} {
		if b == nil || b.VertexCount() == 0 {
			continue
		}
		g := &gpuMesh{
			mesh:        batchToRaylibMesh(b, nil),
			transparent: b.Transparent,
			center:      b.Bounds().Center(),
		}
		if b.CastShadow {
			shadow := batchToRaylibMesh(b, &shadowColor)
			g.shadow = &shadow
		}
		out = append(out, g)
	}
	return out
}

func (g *gpuMesh) unload() {
	rl.UnloadMesh(&g.mesh)
	if g.shadow != nil {
		rl.UnloadMesh(g.shadow)
	}
}

func (c *meshCache) unloadAll() {
	for n, meshes := range c.meshes {
		for _, m := range meshes {
			m.unload()
		}
		delete(c.meshes, n)
	}
}

// batchToRaylibMesh converts a baked batch to a Raylib mesh. A non-nil tint
// replaces every vertex colour.
func batchToRaylibMesh(b *lighting.Batch, tint *[4]uint8) rl.Mesh {
	vertexCount := b.VertexCount()
	mesh := rl.Mesh{
		VertexCount:   int32(vertexCount),
		TriangleCount: int32(b.TriangleCount()),
	}

	vertices := make([]float32, len(b.Positions))
	copy(vertices, b.Positions)
	normals := make([]float32, len(b.Normals))
	copy(normals, b.Normals)
	texcoords := make([]float32, vertexCount*2)
	colors := make([]uint8, len(b.Colors))
	if tint != nil {
		for i := 0; i < vertexCount; i++ {
			copy(colors[i*4:i*4+4], tint[:])
		}
	} else {
		copy(colors, b.Colors)
	}

	// Assign mesh data
	if len(vertices) > 0 {
		mesh.Vertices = &vertices[0]
	}
	if len(normals) > 0 {
		mesh.Normals = &normals[0]
	}
	if len(texcoords) > 0 {
		mesh.Texcoords = &texcoords[0]
	}
	if len(colors) > 0 {
		mesh.Colors = &colors[0]
	}

	// Upload mesh data to GPU
	rl.UploadMesh(&mesh, false)

	return mesh
}

// drawScene draws meshes, shadows, edges, grid and axes in that order
func (app *App) drawScene() {
	var transparent []*gpuMesh
	var casters []*gpuMesh
	for _, n := range app.session.Scene.Meshes() {
		for _, m := range app.gpu.meshes[n] {
			if m.transparent {
				transparent = append(transparent, m)
			} else {
				rl.DrawMesh(m.mesh, app.gpu.material, rl.MatrixIdentity())
			}
			if m.shadow != nil {
				casters = append(casters, m)
			}
		}
	}

	if app.View.shadows && app.View.showGrid {
		app.drawShadows(casters)
	}

	// far to near so blending composes correctly
	eye := app.Camera.orbit.Position()
	eyeV := geometry.NewVector3(eye.X(), eye.Y(), eye.Z())
	sort.SliceStable(transparent, func(i, j int) bool {
		return transparent[i].center.Distance(eyeV) > transparent[j].center.Distance(eyeV)
	})
	rl.BeginBlendMode(rl.BlendAlpha)
	for _, m := range transparent {
		rl.DrawMesh(m.mesh, app.gpu.material, rl.MatrixIdentity())
	}
	rl.EndBlendMode()

	app.drawLines()
	if app.View.showGrid {
		app.drawGrid()
	}
	if app.View.showAxes {
		app.drawAxes()
	}
}

// drawShadows flattens shadow casters onto the grid plane along the key light
func (app *App) drawShadows(casters []*gpuMesh) {
	light, ok := app.shader.Rig.ShadowLight()
	if !ok || len(casters) == 0 {
		return
	}
	// lift the shadow off the grid to avoid z-fighting
	m, ok := lighting.ShadowMatrix(light, app.View.gridY+0.001)
	if !ok {
		return
	}
	transform := rl.Matrix{
		M0: float32(m.At(0, 0)), M4: float32(m.At(0, 1)), M8: float32(m.At(0, 2)), M12: float32(m.At(0, 3)),
		M1: float32(m.At(1, 0)), M5: float32(m.At(1, 1)), M9: float32(m.At(1, 2)), M13: float32(m.At(1, 3)),
		M2: float32(m.At(2, 0)), M6: float32(m.At(2, 1)), M10: float32(m.At(2, 2)), M14: float32(m.At(2, 3)),
		M3: float32(m.At(3, 0)), M7: float32(m.At(3, 1)), M11: float32(m.At(3, 2)), M15: float32(m.At(3, 3)),
	}
	rl.BeginBlendMode(rl.BlendAlpha)
	for _, c := range casters {
		rl.DrawMesh(*c.shadow, app.gpu.material, transform)
	}
	rl.EndBlendMode()
}
