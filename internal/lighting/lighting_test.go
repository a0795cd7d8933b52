package lighting

import (
	"math"
	"testing"

	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	up   = geometry.NewVector3(0, 1, 0)
	down = geometry.NewVector3(0, -1, 0)
)

func luminance(c scene.Color) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func TestDefaultRig(t *testing.T) {
	rig := DefaultRig()
	assert.InDelta(t, 0.6, rig.Ambient.Intensity, 1e-9)
	assert.Equal(t, uint32(0x444444), rig.Hemisphere.Ground.Hex())
	require.Len(t, rig.Directional, 4)

	key, ok := rig.ShadowLight()
	require.True(t, ok)
	assert.Equal(t, geometry.NewVector3(50, 80, 50), key.Position)
	assert.Equal(t, uint32(0x8899ff), rig.Directional[3].Color.Hex())

	_, ok = Rig{}.ShadowLight()
	assert.False(t, ok)
}

func TestTopFacesAreBrighterThanBottomFaces(t *testing.T) {
	s := NewShader()
	m := scene.NewStandardMaterial()

	top := s.Radiance(m, up, down)
	bottom := s.Radiance(m, down, up)
	assert.Greater(t, luminance(top), luminance(bottom))
	assert.Greater(t, luminance(bottom), 0.0)
}

func TestBasicMaterialIsUnlit(t *testing.T) {
	s := NewShader()
	m := &scene.Material{Kind: scene.MaterialBasic, Color: scene.Hex(0x336699), Opacity: 1}

	assert.Equal(t, m.Color, s.Radiance(m, up, down))
	assert.Equal(t, m.Color, s.Radiance(m, down, up))
}

func TestDoubleSidedFacesTowardsViewer(t *testing.T) {
	s := NewShader()
	m := scene.NewStandardMaterial()
	m.Side = scene.DoubleSide

	flipped := s.Radiance(m, down, down)
	facing := s.Radiance(m, up, down)
	assert.InDelta(t, luminance(facing), luminance(flipped), 1e-9)

	m.Side = scene.FrontSide
	assert.Less(t, luminance(s.Radiance(m, down, down)), luminance(facing))
}

func TestMetalnessDarkensDiffuse(t *testing.T) {
	s := NewShader()
	dielectric := scene.NewStandardMaterial()
	dielectric.Metalness = 0
	metal := scene.NewStandardMaterial()
	metal.Metalness = 1

	side := geometry.NewVector3(1, 0, 0)
	view := geometry.NewVector3(-1, 0, 0)
	assert.Greater(t, luminance(s.Radiance(dielectric, side, view)), luminance(s.Radiance(metal, side, view)))
}

func TestOutput(t *testing.T) {
	linear := &Shader{}
	c := linear.Output(scene.Color{R: 0.5, G: 1, B: 0}, 0.5)
	assert.Equal(t, uint8(128), c.R)
	assert.Equal(t, uint8(255), c.G)
	assert.Equal(t, uint8(0), c.B)
	assert.Equal(t, uint8(128), c.A)

	s := NewShader()
	bright := s.Output(scene.Color{R: 50, G: 50, B: 50}, 1)
	assert.Equal(t, uint8(255), bright.R)
	dark := s.Output(scene.Color{}, 1)
	assert.Equal(t, uint8(0), dark.R)
}

func TestToneMappingCurve(t *testing.T) {
	assert.Zero(t, aces(0))
	assert.Zero(t, aces(-1))
	prev := 0.0
	for x := 0.01; x < 20; x *= 1.5 {
		v := aces(x)
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, 1.0)
		prev = v
	}
	assert.Equal(t, ToneMappingACES, ParseToneMapping("aces"))
	assert.Equal(t, ToneMappingNone, ParseToneMapping("none"))
}

func TestSRGBRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.001, 0.02, 0.2, 0.5, 0.8, 1} {
		assert.InDelta(t, v, DecodeSRGB(EncodeSRGB(v)), 1e-9)
	}
	assert.InDelta(t, 0.7353569830524495, EncodeSRGB(0.5), 1e-9)
}

func TestShadowMatrix(t *testing.T) {
	key := DefaultRig().Directional[0]
	m, ok := ShadowMatrix(key, -0.1)
	require.True(t, ok)

	p := geometry.NewVector3(2, 10, -3)
	q := scene.TransformPoint(m, p)
	assert.InDelta(t, -0.1, q.Y, 1e-9)

	// the projection runs along the light direction
	d := p.Sub(q).Normalize()
	l := key.Direction()
	assert.InDelta(t, 1, d.Dot(l), 1e-9)

	// points on the plane stay put
	onPlane := geometry.NewVector3(4, -0.1, 7)
	assert.InDelta(t, 0, scene.TransformPoint(m, onPlane).Distance(onPlane), 1e-9)

	_, ok = ShadowMatrix(DefaultRig().Directional[3], 0)
	assert.False(t, ok)
}

func TestBake(t *testing.T) {
	s := NewShader()
	m := scene.NewStandardMaterial()
	n := scene.NewMesh("box", scene.BoxGeometry(2, 2, 2), m)
	n.SetPosition(geometry.NewVector3(10, 0, 0))
	n.Mesh.CastShadow = true

	opaque, transparent := s.Bake(n)
	require.NotNil(t, opaque)
	assert.Nil(t, transparent)
	assert.Equal(t, 36, opaque.VertexCount())
	assert.Equal(t, 12, opaque.TriangleCount())
	assert.Len(t, opaque.Colors, 36*4)
	assert.True(t, opaque.CastShadow)
	assert.InDelta(t, 9, opaque.Bounds().Min.X, 1e-6)
	assert.InDelta(t, 11, opaque.Bounds().Max.X, 1e-6)

	// BoxGeometry emits the +y face third and the -y face fourth
	topColor := opaque.Colors[2*6*4]
	bottomColor := opaque.Colors[3*6*4]
	assert.Greater(t, topColor, bottomColor)
	assert.Equal(t, uint8(255), opaque.Colors[3])
}

func TestBakeSplitsTransparentGroups(t *testing.T) {
	g := scene.BoxGeometry(1, 1, 1)
	g.Groups = []scene.DrawGroup{
		{Start: 0, Count: 30, MaterialIndex: 0},
		{Start: 30, Count: 6, MaterialIndex: 1},
	}
	glass := scene.NewStandardMaterial()
	glass.Opacity = 0.5
	glass.Normalize()
	n := scene.NewMesh("window", g, scene.NewStandardMaterial(), glass)

	opaque, transparent := NewShader().Bake(n)
	require.NotNil(t, opaque)
	require.NotNil(t, transparent)
	assert.Equal(t, 10, opaque.TriangleCount())
	assert.Equal(t, 2, transparent.TriangleCount())
	assert.True(t, transparent.Transparent)
	assert.Equal(t, uint8(128), transparent.Colors[3])

	none, _ := NewShader().Bake(scene.NewGroup("g"))
	assert.Nil(t, none)
	assert.False(t, math.IsNaN(float64(opaque.Normals[0])))
}
