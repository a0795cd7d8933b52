package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// Kind tags the payload a Node carries
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindLines
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindLines:
		return "lines"
	}
	return "unknown"
}

// Mesh is the payload of a KindMesh node
type Mesh struct {
	Geometry      *Geometry
	Materials     []*Material
	CastShadow    bool
	ReceiveShadow bool
	ExpressID     int // 0 when the node does not map to an IFC element
}

// Lines is the payload of a KindLines node. Segments holds point pairs in local space.
type Lines struct {
	Segments []geometry.Vector3
	Material *Material
}

// Node is one element of the scene graph
type Node struct {
	Name      string
	Kind      Kind
	Transform mgl64.Mat4 // local transform relative to Parent
	Visible   bool
	Mesh      *Mesh
	Lines     *Lines
	Children  []*Node
	Parent    *Node
}

// NewGroup creates an empty group node
func NewGroup(name string) *Node {
	return &Node{Name: name, Kind: KindGroup, Transform: mgl64.Ident4(), Visible: true}
}

// NewMesh creates a mesh node with the given geometry and materials
func NewMesh(name string, geom *Geometry, materials ...*Material) *Node {
	return &Node{
		Name:      name,
		Kind:      KindMesh,
		Transform: mgl64.Ident4(),
		Visible:   true,
		Mesh:      &Mesh{Geometry: geom, Materials: materials},
	}
}

// NewLines creates a line-segment node
func NewLines(name string, segments []geometry.Vector3, mat *Material) *Node {
	return &Node{
		Name:      name,
		Kind:      KindLines,
		Transform: mgl64.Ident4(),
		Visible:   true,
		Lines:     &Lines{Segments: segments, Material: mat},
	}
}

// Add attaches child to n, detaching it from any previous parent first
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches child from n. It reports whether child was a direct child.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any
func (n *Node) Detach() {
	if n.Parent != nil {
		n.Parent.Remove(n)
	}
}

// SetPosition replaces the translation part of the local transform
func (n *Node) SetPosition(p geometry.Vector3) {
	n.Transform.SetCol(3, mgl64.Vec4{p.X, p.Y, p.Z, 1})
}

// WorldMatrix returns the transform from local space to scene space
func (n *Node) WorldMatrix() mgl64.Mat4 {
	m := n.Transform
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Transform.Mul4(m)
	}
	return m
}

// Traverse calls fn for n and every descendant in depth-first pre-order
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// CountMeshes returns the number of mesh nodes in the subtree
func CountMeshes(n *Node) int {
	count := 0
	n.Traverse(func(c *Node) {
		if c.Kind == KindMesh {
			count++
		}
	})
	return count
}

// BoundingBox returns the scene-space bounds of every mesh and line node in the subtree
func BoundingBox(n *Node) geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	n.Traverse(func(c *Node) {
		switch c.Kind {
		case KindMesh:
			if c.Mesh == nil || c.Mesh.Geometry == nil {
				return
			}
			world := c.WorldMatrix()
			g := c.Mesh.Geometry
			for i := 0; i < g.VertexCount(); i++ {
				bbox.Extend(TransformPoint(world, g.Vertex(i)))
			}
		case KindLines:
			if c.Lines == nil {
				return
			}
			world := c.WorldMatrix()
			for _, p := range c.Lines.Segments {
				bbox.Extend(TransformPoint(world, p))
			}
		}
	})
	return bbox
}

// TransformPoint applies an affine matrix to a point
func TransformPoint(m mgl64.Mat4, p geometry.Vector3) geometry.Vector3 {
	v := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return geometry.NewVector3(v[0], v[1], v[2])
}

// TransformDirection applies the inverse-transpose of m to a normal
func TransformDirection(m mgl64.Mat4, d geometry.Vector3) geometry.Vector3 {
	nm := m.Mat3().Inv().Transpose()
	v := nm.Mul3x1(mgl64.Vec3{d.X, d.Y, d.Z})
	return geometry.NewVector3(v[0], v[1], v[2]).Normalize()
}
