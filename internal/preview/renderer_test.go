package preview

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/lighting"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bare() Options {
	o := DefaultOptions()
	o.Width, o.Height = 160, 120
	o.Grid = false
	o.Axes = false
	return o
}

func sideCamera() Camera {
	c := DefaultCamera()
	c.Position = mgl64.Vec3{8, 3, 0}
	c.Target = mgl64.Vec3{0, 2.5, 0}
	return c
}

func blueBox() *scene.Node {
	m := scene.NewStandardMaterial()
	m.SetColor(scene.Hex(0x0066ff))
	n := scene.NewMesh("box", scene.BoxGeometry(5, 5, 5), m)
	n.SetPosition(geometry.NewVector3(0, 2.5, 0))
	return n
}

func TestRenderEmptyScene(t *testing.T) {
	opts := bare()
	img, err := New(nil, opts).Render(context.Background(), scene.New(), DefaultCamera())
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
	for _, p := range [][2]int{{0, 0}, {80, 60}, {159, 119}} {
		assert.Equal(t, opts.Background, img.RGBAAt(p[0], p[1]))
	}
}

func TestRenderMesh(t *testing.T) {
	s := scene.New()
	s.Add(blueBox())

	img, err := New(lighting.NewShader(), bare()).Render(context.Background(), s, sideCamera())
	require.NoError(t, err)

	c := img.RGBAAt(80, 60)
	assert.Greater(t, c.B, c.R)
	assert.Equal(t, uint8(255), c.A)
	assert.NotEqual(t, bare().Background, c)
	assert.Equal(t, bare().Background, img.RGBAAt(2, 2))
}

func TestRenderBlendsTransparentMeshes(t *testing.T) {
	box := blueBox()
	mat := box.Mesh.Materials[0]
	mat.SetColor(scene.Hex(0xff0000))
	mat.Metalness = 0
	mat.Opacity = 0.5
	mat.Normalize()
	s := scene.New()
	s.Add(box)

	shader := &lighting.Shader{Rig: lighting.Rig{Ambient: lighting.Ambient{Color: scene.Hex(0xffffff), Intensity: 1}}}
	opts := bare()
	opts.Background = color.RGBA{A: 255}
	img, err := New(shader, opts).Render(context.Background(), s, sideCamera())
	require.NoError(t, err)

	// front and back faces each cover half: 1 - 0.5*0.5 of full red
	c := img.RGBAAt(80, 60)
	assert.InDelta(t, 191, int(c.R), 2)
	assert.Zero(t, c.G)
}

func TestRenderLines(t *testing.T) {
	s := scene.New()
	s.Add(scene.NewLines("cross", []geometry.Vector3{
		geometry.NewVector3(0, 2.5, -10), geometry.NewVector3(0, 2.5, 10),
	}, scene.NewLineMaterial(scene.Hex(0xffffff), 1)))

	img, err := New(nil, bare()).Render(context.Background(), s, sideCamera())
	require.NoError(t, err)

	white := 0
	for x := 0; x < 160; x++ {
		for y := 55; y <= 65; y++ {
			if img.RGBAAt(x, y) == (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				white++
				break
			}
		}
	}
	assert.Greater(t, white, 100)
}

func TestRenderGridAndAxes(t *testing.T) {
	opts := bare()
	opts.Grid = true
	opts.Axes = true
	img, err := New(nil, opts).Render(context.Background(), scene.New(), DefaultCamera())
	require.NoError(t, err)

	changed := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != opts.Background {
				changed++
			}
		}
	}
	assert.Greater(t, changed, 500)
}

func TestRenderCancelled(t *testing.T) {
	s := scene.New()
	s.Add(blueBox())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, bare()).Render(ctx, s, sideCamera())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderInvalidSize(t *testing.T) {
	_, err := New(nil, Options{}).Render(context.Background(), scene.New(), DefaultCamera())
	assert.Error(t, err)
}

func TestFitTo(t *testing.T) {
	bbox := scene.BoundingBox(blueBox())
	c := DefaultCamera()
	gridY, ok := c.FitTo(bbox, 4.0/3)
	require.True(t, ok)
	assert.InDelta(t, -0.1, gridY, 1e-9)
	assert.InDelta(t, 2.5, c.Target.Y(), 1e-9)

	vp := c.ViewProjection(4.0 / 3)
	for _, corner := range bbox.Corners() {
		p, ok := project(vp, corner, 400, 300)
		require.True(t, ok)
		assert.True(t, p.x >= 0 && p.x <= 400 && p.y >= 0 && p.y <= 300, "corner %v at %v", corner, p)
	}

	_, ok = c.FitTo(geometry.NewBoundingBox(), 1)
	assert.False(t, ok)
}

func TestClipSegment(t *testing.T) {
	a, b, ok := clipSegment(screenPoint{x: -50, y: 10}, screenPoint{x: 150, y: 10}, 100, 100)
	require.True(t, ok)
	assert.InDelta(t, 0, a.x, 1e-9)
	assert.InDelta(t, 99, b.x, 1e-9)

	_, _, ok = clipSegment(screenPoint{x: -50, y: -10}, screenPoint{x: 150, y: -10}, 100, 100)
	assert.False(t, ok)
}

func TestScaleAndPNG(t *testing.T) {
	img, err := New(nil, bare()).Render(context.Background(), scene.New(), DefaultCamera())
	require.NoError(t, err)

	small := Scale(img, 40, 30)
	assert.Equal(t, 40, small.Bounds().Dx())
	assert.Equal(t, 30, small.Bounds().Dy())

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, small))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, small.Bounds(), decoded.Bounds())
}
