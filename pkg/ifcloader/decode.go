package ifcloader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const extUnlit = "KHR_materials_unlit"

// ResolveFunc maps a glTF node name to an express ID, 0 when unknown
type ResolveFunc func(name string) int

// BuildScene converts the default scene of a glTF document into a node tree
func BuildScene(doc *gltf.Document, name string, resolve ResolveFunc) (*scene.Node, error) {
	root := scene.NewGroup(name)
	if len(doc.Nodes) == 0 {
		return root, nil
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		roots = rootNodes(doc)
	}

	b := &builder{doc: doc, resolve: resolve, visiting: make(map[int]bool)}
	for _, idx := range roots {
		n, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

// rootNodes returns every node that is not the child of another
func rootNodes(doc *gltf.Document) []int {
	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var out []int
	for i := range doc.Nodes {
		if !isChild[i] {
			out = append(out, i)
		}
	}
	return out
}

type builder struct {
	doc      *gltf.Document
	resolve  ResolveFunc
	visiting map[int]bool
}

func (b *builder) node(idx int) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if b.visiting[idx] {
		return nil, fmt.Errorf("node %d is its own ancestor", idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	var n *scene.Node
	if src.Mesh != nil {
		geom, mats, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		n = scene.NewMesh(src.Name, geom, mats...)
		if b.resolve != nil {
			n.Mesh.ExpressID = b.resolve(src.Name)
		}
	} else {
		n = scene.NewGroup(src.Name)
	}
	n.Transform = localMatrix(src)

	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func localMatrix(n *gltf.Node) mgl64.Mat4 {
	if n.Matrix != [16]float64{} {
		return mgl64.Mat4(n.MatrixOrDefault())
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

// mesh merges the triangle primitives of a glTF mesh into one geometry with
// one draw group and one material per primitive
func (b *builder) mesh(idx int) (*scene.Geometry, []*scene.Material, error) {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	geom := &scene.Geometry{Indices: []uint32{}}
	var mats []*scene.Material
	hasNormals := true

	for _, p := range b.doc.Meshes[idx].Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := b.accessor(posIdx)
		if err != nil {
			return nil, nil, err
		}
		positions, err := modeler.ReadPosition(b.doc, acc, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("reading positions: %w", err)
		}

		var normals [][3]float32
		if nIdx, ok := p.Attributes[gltf.NORMAL]; ok {
			acc, err := b.accessor(nIdx)
			if err != nil {
				return nil, nil, err
			}
			normals, err = modeler.ReadNormal(b.doc, acc, nil)
			if err != nil {
				return nil, nil, fmt.Errorf("reading normals: %w", err)
			}
		}
		if len(normals) != len(positions) {
			hasNormals = false
		}

		var indices []uint32
		if p.Indices != nil {
			acc, err := b.accessor(*p.Indices)
			if err != nil {
				return nil, nil, err
			}
			indices, err = modeler.ReadIndices(b.doc, acc, nil)
			if err != nil {
				return nil, nil, fmt.Errorf("reading indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := uint32(geom.VertexCount())
		for i, v := range positions {
			geom.Positions = append(geom.Positions, v[0], v[1], v[2])
			if hasNormals {
				geom.Normals = append(geom.Normals, normals[i][0], normals[i][1], normals[i][2])
			}
		}
		start := len(geom.Indices)
		for _, i := range indices {
			geom.Indices = append(geom.Indices, base+i)
		}
		geom.Groups = append(geom.Groups, scene.DrawGroup{
			Start:         start,
			Count:         len(indices),
			MaterialIndex: len(mats),
		})
		mats = append(mats, b.material(p.Material))
	}

	if !hasNormals {
		geom.Normals = nil
	}
	if err := geom.Validate(); err != nil {
		return nil, nil, err
	}
	return geom, mats, nil
}

func (b *builder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) || b.doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

// material converts a glTF material. Every mesh gets its own copy so later
// per-element recoloring never bleeds into other elements.
func (b *builder) material(idx *int) *scene.Material {
	m := scene.NewStandardMaterial()
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		return m
	}
	src := b.doc.Materials[*idx]
	m.Name = src.Name

	if _, ok := src.Extensions[extUnlit]; ok {
		m.Kind = scene.MaterialBasic
	}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.SetColor(scene.Color{R: c[0], G: c[1], B: c[2]})
		m.Opacity = c[3]
		if pbr.MetallicFactor != nil {
			m.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			m.Map = "texture:" + strconv.Itoa(pbr.BaseColorTexture.Index)
		}
	}
	e := src.EmissiveFactor
	m.Emissive = scene.Color{R: e[0], G: e[1], B: e[2]}
	if src.DoubleSided {
		m.Side = scene.DoubleSide
	}
	m.Transparent = src.AlphaMode == gltf.AlphaBlend
	m.Normalize()
	return m
}

// NameResolver maps the node names IfcConvert writes to express IDs.
// Accepted forms are a bare express ID, "id-<n>", "#<n>", or an IFC GlobalId
// with an optional "product-" prefix and optional suffix after the 22 characters.
func NameResolver(byGUID func(guid string) (int, error)) ResolveFunc {
	return func(name string) int {
		name = strings.TrimSpace(name)
		if name == "" {
			return 0
		}
		for _, prefix := range []string{"id-", "#"} {
			if rest, ok := strings.CutPrefix(name, prefix); ok {
				name = rest
				break
			}
		}
		if id, err := strconv.Atoi(name); err == nil {
			if id > 0 {
				return id
			}
			return 0
		}
		if byGUID == nil {
			return 0
		}
		name = strings.TrimPrefix(name, "product-")
		if len(name) < 22 {
			return 0
		}
		id, err := byGUID(name[:22])
		if err != nil {
			return 0
		}
		return id
	}
}
