package lighting

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// Batch is a mesh flattened to scene space with one vertex per triangle
// corner. Positions and Normals are xyz triples, Colors rgba quadruples.
type Batch struct {
	Name        string
	Positions   []float32
	Normals     []float32
	Colors      []uint8
	Transparent bool
	CastShadow  bool
}

// VertexCount returns the number of vertices
func (b *Batch) VertexCount() int {
	return len(b.Positions) / 3
}

// TriangleCount returns the number of triangles
func (b *Batch) TriangleCount() int {
	return b.VertexCount() / 3
}

// Vertex returns vertex i
func (b *Batch) Vertex(i int) geometry.Vector3 {
	return geometry.NewVector3(float64(b.Positions[i*3]), float64(b.Positions[i*3+1]), float64(b.Positions[i*3+2]))
}

// Bounds returns the bounding box of the batch
func (b *Batch) Bounds() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for i := 0; i < b.VertexCount(); i++ {
		bbox.Extend(b.Vertex(i))
	}
	return bbox
}

func (b *Batch) add(p, n geometry.Vector3, c [4]uint8) {
	b.Positions = append(b.Positions, float32(p.X), float32(p.Y), float32(p.Z))
	b.Normals = append(b.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	b.Colors = append(b.Colors, c[0], c[1], c[2], c[3])
}

// Bake lights a mesh node and returns its opaque and transparent triangles
// as separate batches; either may be nil. Specular highlights are evaluated
// for a viewer facing each surface head-on, so the result does not depend on
// the camera.
func (s *Shader) Bake(n *scene.Node) (opaque, transparent *Batch) {
	if n.Kind != scene.KindMesh || n.Mesh == nil || n.Mesh.Geometry == nil {
		return nil, nil
	}
	g := n.Mesh.Geometry
	if g.Validate() != nil {
		return nil, nil
	}
	world := n.WorldMatrix()
	normalMatrix := world.Mat3().Inv().Transpose()
	mats := n.Mesh.Materials
	if len(mats) == 0 {
		mats = []*scene.Material{scene.NewStandardMaterial()}
	}

	// one colour per (material, vertex) pair is enough; corners share them
	type key struct{ mat, vertex int }
	cache := map[key][4]uint8{}

	for t := 0; t < g.TriangleCount(); t++ {
		slot := g.MaterialIndexAt(t * 3)
		if slot < 0 || slot >= len(mats) {
			slot = 0
		}
		m := mats[slot]

		var corners [3]geometry.Vector3
		for c := 0; c < 3; c++ {
			corners[c] = scene.TransformPoint(world, g.Vertex(int(g.Index(t*3+c))))
		}
		face := corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0])).Normalize()
		if face.IsZero() {
			continue
		}

		dst := &opaque
		if m.IsTransparent() {
			dst = &transparent
		}
		if *dst == nil {
			*dst = &Batch{Name: n.Name, Transparent: m.IsTransparent(), CastShadow: n.Mesh.CastShadow}
		}

		for c := 0; c < 3; c++ {
			vi := int(g.Index(t*3 + c))
			normal := transformNormal(normalMatrix, g.Normal(vi))
			if normal.IsZero() {
				normal = face
			}
			k := key{slot, vi}
			col, ok := cache[k]
			if !ok {
				rgba := s.Shade(m, normal, normal.Mul(-1))
				col = [4]uint8{rgba.R, rgba.G, rgba.B, rgba.A}
				cache[k] = col
			}
			(*dst).add(corners[c], normal, col)
		}
	}
	return opaque, transparent
}

func transformNormal(m mgl64.Mat3, n geometry.Vector3) geometry.Vector3 {
	if n.IsZero() {
		return n
	}
	v := m.Mul3x1(mgl64.Vec3{n.X, n.Y, n.Z})
	return geometry.NewVector3(v[0], v[1], v[2]).Normalize()
}

// ShadowMatrix projects points along the light onto the horizontal plane at
// planeY. It reports false for lights at or below the horizon.
func ShadowMatrix(light Directional, planeY float64) (mgl64.Mat4, bool) {
	l := light.Direction()
	if l.Y <= 1e-6 {
		return mgl64.Ident4(), false
	}
	sx, sz := l.X/l.Y, l.Z/l.Y
	return mgl64.Mat4FromRows(
		mgl64.Vec4{1, -sx, 0, sx * planeY},
		mgl64.Vec4{0, 0, 0, planeY},
		mgl64.Vec4{0, -sz, 1, sz * planeY},
		mgl64.Vec4{0, 0, 0, 1},
	), true
}
