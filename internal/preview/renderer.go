// Package preview renders a scene into an image on the CPU. It backs the
// snapshot command and the inspector window, where no GPU context exists.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/lighting"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
	"golang.org/x/image/draw"
)

// Grid appearance, shared with the interactive viewer
const (
	GridSize        = 100
	GridDivisions   = 100
	GridCenterColor = 0x4488ff
	GridColor       = 0x223344
	AxesLength      = 10
)

// Options control what a render includes
type Options struct {
	Width      int
	Height     int
	Background color.RGBA
	Grid       bool
	GridY      float64
	Axes       bool
}

// DefaultOptions returns an 800x600 render on the viewer background with grid and axes
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		Background: color.RGBA{R: 0x1a, G: 0x1f, B: 0x2e, A: 255},
		Grid:       true,
		Axes:       true,
	}
}

// Renderer draws scenes with baked lighting
type Renderer struct {
	shader *lighting.Shader
	opts   Options
}

// New creates a renderer
func New(shader *lighting.Shader, opts Options) *Renderer {
	if shader == nil {
		shader = lighting.NewShader()
	}
	return &Renderer{shader: shader, opts: opts}
}

// Options returns the render options
func (r *Renderer) Options() Options {
	return r.opts
}

// SetGridY moves the ground grid
func (r *Renderer) SetGridY(y float64) {
	r.opts.GridY = y
}

type blendTriangle struct {
	p     [3]screenPoint
	c     [3]color.RGBA
	depth float64
}

// Render draws every visible mesh and line node of s as seen from cam
func (r *Renderer) Render(ctx context.Context, s *scene.Scene, cam Camera) (*image.RGBA, error) {
	w, h := r.opts.Width, r.opts.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}
	t := newTarget(w, h, r.opts.Background)
	vp := cam.ViewProjection(float64(w) / float64(h))

	var blended []blendTriangle
	for _, n := range s.Meshes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opaque, transparent := r.shader.Bake(n)
		if opaque != nil {
			eachTriangle(vp, opaque, w, h, func(p [3]screenPoint, c [3]color.RGBA) {
				t.fillTriangle(p, c, false)
			})
		}
		if transparent != nil {
			eachTriangle(vp, transparent, w, h, func(p [3]screenPoint, c [3]color.RGBA) {
				blended = append(blended, blendTriangle{p: p, c: c, depth: (p[0].z + p[1].z + p[2].z) / 3})
			})
		}
	}

	if r.opts.Grid {
		r.drawGrid(t, vp)
	}
	if r.opts.Axes {
		r.drawAxes(t, vp)
	}

	// back to front
	sort.SliceStable(blended, func(i, j int) bool { return blended[i].depth > blended[j].depth })
	for _, b := range blended {
		t.fillTriangle(b.p, b.c, true)
	}

	for _, n := range s.LineNodes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.drawLines(t, vp, n)
	}
	return t.img, nil
}

func eachTriangle(vp mgl64.Mat4, b *lighting.Batch, w, h int, fn func([3]screenPoint, [3]color.RGBA)) {
	for tri := 0; tri < b.TriangleCount(); tri++ {
		var p [3]screenPoint
		var c [3]color.RGBA
		visible := true
		for k := 0; k < 3; k++ {
			i := tri*3 + k
			sp, ok := project(vp, b.Vertex(i), w, h)
			if !ok {
				visible = false
				break
			}
			p[k] = sp
			c[k] = color.RGBA{R: b.Colors[i*4], G: b.Colors[i*4+1], B: b.Colors[i*4+2], A: b.Colors[i*4+3]}
		}
		if visible {
			fn(p, c)
		}
	}
}

func (r *Renderer) drawLines(t *target, vp mgl64.Mat4, n *scene.Node) {
	if n.Lines == nil || n.Lines.Material == nil {
		return
	}
	world := n.WorldMatrix()
	col := n.Lines.Material.Color.RGBA(n.Lines.Material.Opacity)
	seg := n.Lines.Segments
	for i := 0; i+1 < len(seg); i += 2 {
		r.segment(t, vp, scene.TransformPoint(world, seg[i]), scene.TransformPoint(world, seg[i+1]), col)
	}
}

func (r *Renderer) segment(t *target, vp mgl64.Mat4, a, b geometry.Vector3, col color.RGBA) {
	pa, okA := project(vp, a, t.w, t.h)
	pb, okB := project(vp, b, t.w, t.h)
	if !okA || !okB {
		return
	}
	if pa, pb, ok := clipSegment(pa, pb, float64(t.w), float64(t.h)); ok {
		t.drawLine(pa, pb, col)
	}
}

func (r *Renderer) drawGrid(t *target, vp mgl64.Mat4) {
	half := float64(GridSize) / 2
	step := float64(GridSize) / GridDivisions
	y := r.opts.GridY
	for i := 0; i <= GridDivisions; i++ {
		v := -half + float64(i)*step
		col := scene.Hex(GridColor).RGBA(1)
		if i == GridDivisions/2 {
			col = scene.Hex(GridCenterColor).RGBA(1)
		}
		r.segment(t, vp, geometry.NewVector3(v, y, -half), geometry.NewVector3(v, y, half), col)
		r.segment(t, vp, geometry.NewVector3(-half, y, v), geometry.NewVector3(half, y, v), col)
	}
}

func (r *Renderer) drawAxes(t *target, vp mgl64.Mat4) {
	o := geometry.Vector3{}
	r.segment(t, vp, o, geometry.NewVector3(AxesLength, 0, 0), color.RGBA{R: 255, A: 255})
	r.segment(t, vp, o, geometry.NewVector3(0, AxesLength, 0), color.RGBA{G: 255, A: 255})
	r.segment(t, vp, o, geometry.NewVector3(0, 0, AxesLength), color.RGBA{B: 255, A: 255})
}

// clipSegment clips a segment to the viewport (Liang-Barsky)
func clipSegment(a, b screenPoint, w, h float64) (screenPoint, screenPoint, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := b.x-a.x, b.y-a.y
	checks := [4][2]float64{
		{-dx, a.x},
		{dx, w - 1 - a.x},
		{-dy, a.y},
		{dy, h - 1 - a.y},
	}
	for _, c := range checks {
		p, q := c[0], c[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return a, b, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	lerp := func(t float64) screenPoint {
		return screenPoint{x: a.x + dx*t, y: a.y + dy*t, z: a.z + (b.z-a.z)*t}
	}
	return lerp(t0), lerp(t1), true
}

// Scale resizes img to fit width x height with Catmull-Rom filtering
func Scale(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes img as PNG
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
