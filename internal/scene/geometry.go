package scene

import (
	"errors"
	"fmt"

	"github.com/philipparndt/goifc/pkg/geometry"
)

// ErrInvalidGeometry is returned when buffers are inconsistent
var ErrInvalidGeometry = errors.New("invalid geometry")

// DrawGroup maps a range of triangle indices to one entry of Mesh.Materials
type DrawGroup struct {
	Start         int // first index (not triangle) of the range
	Count         int // number of indices
	MaterialIndex int
}

// Geometry holds triangle buffers. Positions and Normals are flat xyz arrays.
// When Indices is nil, every three consecutive vertices form a triangle.
type Geometry struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Groups    []DrawGroup
}

// VertexCount returns the number of vertices
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// IndexCount returns the number of triangle corners
func (g *Geometry) IndexCount() int {
	if g.Indices != nil {
		return len(g.Indices)
	}
	return g.VertexCount()
}

// TriangleCount returns the number of triangles
func (g *Geometry) TriangleCount() int {
	return g.IndexCount() / 3
}

// Index returns the vertex index of triangle corner i
func (g *Geometry) Index(i int) uint32 {
	if g.Indices != nil {
		return g.Indices[i]
	}
	return uint32(i)
}

// Vertex returns vertex i
func (g *Geometry) Vertex(i int) geometry.Vector3 {
	return geometry.NewVector3(
		float64(g.Positions[i*3]),
		float64(g.Positions[i*3+1]),
		float64(g.Positions[i*3+2]),
	)
}

// Normal returns the normal of vertex i, or zero if there are no normals
func (g *Geometry) Normal(i int) geometry.Vector3 {
	if len(g.Normals) < (i+1)*3 {
		return geometry.Vector3{}
	}
	return geometry.NewVector3(
		float64(g.Normals[i*3]),
		float64(g.Normals[i*3+1]),
		float64(g.Normals[i*3+2]),
	)
}

// Triangle returns triangle t as vertex positions
func (g *Geometry) Triangle(t int) geometry.Triangle {
	return geometry.NewTriangle(
		g.Vertex(int(g.Index(t*3))),
		g.Vertex(int(g.Index(t*3+1))),
		g.Vertex(int(g.Index(t*3+2))),
	)
}

// Validate checks buffer lengths and index ranges
func (g *Geometry) Validate() error {
	if len(g.Positions)%3 != 0 {
		return fmt.Errorf("%w: position buffer length %d", ErrInvalidGeometry, len(g.Positions))
	}
	if g.Normals != nil && len(g.Normals) != len(g.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrInvalidGeometry, len(g.Normals), len(g.Positions))
	}
	if g.IndexCount()%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidGeometry, g.IndexCount())
	}
	n := uint32(g.VertexCount())
	for _, idx := range g.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d out of range (%d vertices)", ErrInvalidGeometry, idx, n)
		}
	}
	return nil
}

// MaterialIndexAt returns the material slot of triangle corner i
func (g *Geometry) MaterialIndexAt(i int) int {
	for _, grp := range g.Groups {
		if i >= grp.Start && i < grp.Start+grp.Count {
			return grp.MaterialIndex
		}
	}
	return 0
}

// ComputeVertexNormals replaces the normals by area-weighted face normal sums
func (g *Geometry) ComputeVertexNormals() {
	if g.Validate() != nil {
		return
	}
	acc := make([]geometry.Vector3, g.VertexCount())
	for t := 0; t < g.TriangleCount(); t++ {
		a, b, c := g.Index(t*3), g.Index(t*3+1), g.Index(t*3+2)
		va, vb, vc := g.Vertex(int(a)), g.Vertex(int(b)), g.Vertex(int(c))
		// unnormalized cross product weights by area
		n := vb.Sub(va).Cross(vc.Sub(va))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	normals := make([]float32, len(g.Positions))
	for i, n := range acc {
		n = n.Normalize()
		normals[i*3] = float32(n.X)
		normals[i*3+1] = float32(n.Y)
		normals[i*3+2] = float32(n.Z)
	}
	g.Normals = normals
}

// BoxGeometry builds an axis-aligned box centred on the origin with per-face normals
func BoxGeometry(width, height, depth float64) *Geometry {
	hx, hy, hz := float32(width/2), float32(height/2), float32(depth/2)
	type face struct {
		normal  [3]float32
		corners [4][3]float32
	}
	faces := []face{
		{[3]float32{1, 0, 0}, [4][3]float32{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
		{[3]float32{0, 0, 1}, [4][3]float32{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
	}

	g := &Geometry{}
	for _, f := range faces {
		base := uint32(g.VertexCount())
		for _, c := range f.corners {
			g.Positions = append(g.Positions, c[0], c[1], c[2])
			g.Normals = append(g.Normals, f.normal[0], f.normal[1], f.normal[2])
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}
