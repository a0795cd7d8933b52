package recolor

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	types  map[int]string
	styles map[int]*ifc.SurfaceStyle
	broken map[int]bool
}

func (f *fakeSource) ItemProperties(_, id int) (*ifc.Properties, error) {
	if f.broken[id] {
		return nil, errors.New("index corrupted")
	}
	t, ok := f.types[id]
	if !ok {
		return nil, ifc.ErrNotFound
	}
	return &ifc.Properties{ExpressID: id, Type: t}, nil
}

func (f *fakeSource) SurfaceStyle(_, id int) (*ifc.SurfaceStyle, error) {
	if f.broken[id] {
		return nil, errors.New("index corrupted")
	}
	s, ok := f.styles[id]
	if !ok {
		return nil, ifc.ErrNotFound
	}
	return s, nil
}

func element(name string, id int, mats ...*scene.Material) *scene.Node {
	n := scene.NewMesh(name, scene.BoxGeometry(1, 1, 1), mats...)
	n.Mesh.ExpressID = id
	return n
}

func lambert(c uint32) *scene.Material {
	m := &scene.Material{Kind: scene.MaterialLambert, Opacity: 1, Map: "texture:3"}
	m.SetColor(scene.Hex(c))
	return m
}

func model() (*scene.Node, ModelRef) {
	root := scene.NewGroup("house.ifc")
	root.Add(element("wall", 1, lambert(0x111111)))
	root.Add(element("window", 2, scene.NewStandardMaterial()))
	storey := scene.NewGroup("storey")
	storey.Add(element("proxy", 3, scene.NewStandardMaterial()))
	storey.Add(element("broken", 4, scene.NewStandardMaterial()))
	storey.Add(element("anonymous", 0, scene.NewStandardMaterial()))
	root.Add(storey)

	src := &fakeSource{
		types: map[int]string{1: "IFCWALL", 2: "IfcWindow", 3: "IFCUNKNOWNTHING"},
		styles: map[int]*ifc.SurfaceStyle{
			1: {Colour: ifc.RGB{R: 1}, HasColour: true},
			2: {Colour: ifc.RGB{B: 1}, HasColour: true, Transparency: 0.7, HasTransparency: true},
		},
		broken: map[int]bool{4: true},
	}
	return root, ModelRef{ID: 1, Props: src}
}

func meshesByName(root *scene.Node) map[string]*scene.Mesh {
	out := map[string]*scene.Mesh{}
	root.Traverse(func(n *scene.Node) {
		if n.Kind == scene.KindMesh {
			out[n.Name] = n.Mesh
		}
	})
	return out
}

func assertInvariants(t *testing.T, root *scene.Node) {
	t.Helper()
	for name, m := range meshesByName(root) {
		assert.True(t, m.CastShadow, name)
		assert.True(t, m.ReceiveShadow, name)
		for _, mat := range m.Materials {
			assert.Equal(t, scene.MaterialStandard, mat.Kind, name)
			if mat.Opacity < 1 {
				assert.True(t, mat.Transparent, name)
			}
		}
	}
}

func TestStyleAware(t *testing.T) {
	root, ref := model()
	require.NoError(t, StyleAware{}.Apply(context.Background(), root, ref))
	assertInvariants(t, root)
	meshes := meshesByName(root)

	wall := meshes["wall"].Materials[0]
	assert.Equal(t, scene.Color{R: 1}, wall.Color)
	assert.Equal(t, scene.DoubleSide, wall.Side)
	assert.Equal(t, "texture:3", wall.Map)
	assert.Equal(t, 0.5, wall.EnvMapIntensity)
	assert.Equal(t, 0.0, wall.Metalness)
	assert.Equal(t, 0.8, wall.Roughness)

	window := meshes["window"].Materials[0]
	assert.Equal(t, scene.Color{B: 1}, window.Color)
	assert.True(t, window.Transparent)
	assert.InDelta(t, 0.3, window.Opacity, 1e-9)
	assert.Equal(t, 0.3, window.Metalness)
	assert.Equal(t, 0.2, window.Roughness)

	for _, name := range []string{"proxy", "broken", "anonymous"} {
		m := meshes[name].Materials[0]
		assert.Equal(t, scene.Color{R: 1, G: 1, B: 1}, m.Color, name)
		assert.Equal(t, 0.1, m.Metalness, name)
		assert.Equal(t, 0.7, m.Roughness, name)
		assert.False(t, m.Transparent, name)
	}
}

func TestStyleAwareKeepsChosenFinish(t *testing.T) {
	mat := scene.NewStandardMaterial()
	mat.Metalness = 0.9
	mat.Roughness = 0.05
	mat.HasColor = false
	root := scene.NewGroup("root")
	root.Add(element("column", 7, mat))

	src := &fakeSource{types: map[int]string{7: "IFCCOLUMN"}}
	require.NoError(t, StyleAware{}.Apply(context.Background(), root, ModelRef{ID: 1, Props: src}))

	assert.Equal(t, 0.9, mat.Metalness)
	assert.Equal(t, 0.05, mat.Roughness)
	assert.Equal(t, scene.Hex(0x696969), mat.Color)
}

func TestMeshWithoutMaterials(t *testing.T) {
	src := &fakeSource{
		types:  map[int]string{7: "IFCCOLUMN", 8: "IFCWALL"},
		styles: map[int]*ifc.SurfaceStyle{8: {Colour: ifc.RGB{G: 1}, HasColour: true}},
	}
	root := scene.NewGroup("root")
	root.Add(element("column", 7))
	root.Add(element("wall", 8))

	require.NoError(t, StyleAware{}.Apply(context.Background(), root, ModelRef{ID: 1, Props: src}))
	assertInvariants(t, root)
	meshes := meshesByName(root)

	require.Len(t, meshes["column"].Materials, 1)
	column := meshes["column"].Materials[0]
	assert.Equal(t, scene.Hex(0x696969), column.Color)
	assert.Equal(t, 0.3, column.Metalness)
	assert.Equal(t, 0.5, column.Roughness)

	require.Len(t, meshes["wall"].Materials, 1)
	assert.Equal(t, scene.Color{G: 1}, meshes["wall"].Materials[0].Color)

	bare := scene.NewGroup("root")
	bare.Add(element("a", 1))
	require.NoError(t, Passthrough{}.Apply(context.Background(), bare, ModelRef{}))
	a := meshesByName(bare)["a"].Materials[0]
	assert.Equal(t, scene.Hex(0x808080), a.Color)
	assert.Equal(t, 0.1, a.Metalness)
}

func TestForced(t *testing.T) {
	glow := &scene.Material{Kind: scene.MaterialPhong, Opacity: 0.4, Emissive: scene.Color{G: 0.5}, Metalness: 0.9, FlatShading: true}
	glow.SetColor(scene.Hex(0x336699))
	root := scene.NewGroup("root")
	root.Add(element("lamp", 1, glow))

	require.NoError(t, Forced{}.Apply(context.Background(), root, ModelRef{}))
	assertInvariants(t, root)

	m := meshesByName(root)["lamp"].Materials[0]
	assert.NotSame(t, glow, m)
	assert.Equal(t, scene.Hex(0x336699), m.Color)
	assert.Equal(t, scene.Color{G: 0.5}, m.Emissive)
	assert.Equal(t, 0.4, m.Opacity)
	assert.True(t, m.Transparent)
	assert.False(t, m.FlatShading)
	assert.Equal(t, scene.DoubleSide, m.Side)
	assert.Equal(t, scene.DefaultPBR, m.Metalness)
}

func TestPassthrough(t *testing.T) {
	plain := &scene.Material{Kind: scene.MaterialBasic, Opacity: 1}
	root := scene.NewGroup("root")
	root.Add(element("a", 1, plain))
	root.Add(element("b", 2, lambert(0x123456)))

	require.NoError(t, Passthrough{}.Apply(context.Background(), root, ModelRef{}))
	assertInvariants(t, root)

	meshes := meshesByName(root)
	assert.Equal(t, scene.Hex(0x808080), meshes["a"].Materials[0].Color)
	b := meshes["b"].Materials[0]
	assert.Equal(t, scene.Hex(0x123456), b.Color)
	assert.Equal(t, 0.1, b.Metalness)
	assert.Equal(t, 0.7, b.Roughness)
}

func TestByName(t *testing.T) {
	for _, name := range []string{StyleName, ForcedName, PassthroughName} {
		s, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	s, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, StyleName, s.Name())

	_, err = ByName("rainbow")
	assert.Error(t, err)
}

func TestLookupType(t *testing.T) {
	assert.Equal(t, 0.2, LookupType("IfcWindow").Roughness)
	assert.True(t, LookupType("IFCWINDOW").Transparent)
	assert.Equal(t, TypeDefaults[DefaultKey], LookupType("IFCSPACE"))
}

func TestProcessorEdges(t *testing.T) {
	root := scene.NewGroup("root")
	root.Transform = mgl64.Translate3D(0, 3, 0)
	box := element("box", 1, scene.NewStandardMaterial())
	root.Add(box)
	empty := scene.NewMesh("empty", &scene.Geometry{})
	root.Add(empty)

	p := &Processor{Strategy: Passthrough{}, Edges: true}
	res, err := p.Process(context.Background(), root, ModelRef{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Meshes)
	require.NotNil(t, res.EdgeGroup)
	require.Len(t, res.EdgeGroup.Children, 1)
	lines := res.EdgeGroup.Children[0]
	assert.Equal(t, scene.KindLines, lines.Kind)
	assert.Len(t, lines.Lines.Segments, 24)
	assert.Equal(t, scene.Color{}, lines.Lines.Material.Color)
	assert.InDelta(t, EdgeOpacity, lines.Lines.Material.Opacity, 1e-9)
	assert.True(t, lines.Lines.Material.Transparent)

	bbox := scene.BoundingBox(res.EdgeGroup)
	assert.InDelta(t, 2.5, bbox.Min.Y, 1e-9)
	assert.InDelta(t, 3.5, bbox.Max.Y, 1e-9)
}

func TestProcessorWithoutEdges(t *testing.T) {
	root, ref := model()
	res, err := (&Processor{}).Process(context.Background(), root, ref)
	require.NoError(t, err)
	assert.Nil(t, res.EdgeGroup)
	assert.Equal(t, 5, res.Meshes)
}

func TestProcessorCancelled(t *testing.T) {
	root, ref := model()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Processor{}).Process(ctx, root, ref)
	assert.ErrorIs(t, err, context.Canceled)
}
