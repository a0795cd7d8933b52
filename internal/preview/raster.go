package preview

import (
	"image"
	"image/color"
	"math"
)

// target is an image with a depth buffer
type target struct {
	img   *image.RGBA
	depth []float64
	w, h  int
}

func newTarget(width, height int, background color.RGBA) *target {
	t := &target{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		depth: make([]float64, width*height),
		w:     width,
		h:     height,
	}
	for i := range t.depth {
		t.depth[i] = math.Inf(1)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t.img.SetRGBA(x, y, background)
		}
	}
	return t
}

// fillTriangle rasterizes a triangle with per-vertex colours. Opaque
// triangles write depth; blended ones are only depth tested.
func (t *target) fillTriangle(p [3]screenPoint, c [3]color.RGBA, blend bool) {
	area := edge(p[0], p[1], p[2].x, p[2].y)
	if math.Abs(area) < 1e-12 {
		return
	}

	minX := int(math.Max(0, math.Floor(math.Min(p[0].x, math.Min(p[1].x, p[2].x)))))
	maxX := int(math.Min(float64(t.w-1), math.Ceil(math.Max(p[0].x, math.Max(p[1].x, p[2].x)))))
	minY := int(math.Max(0, math.Floor(math.Min(p[0].y, math.Min(p[1].y, p[2].y)))))
	maxY := int(math.Min(float64(t.h-1), math.Ceil(math.Max(p[0].y, math.Max(p[1].y, p[2].y)))))

	for y := minY; y <= maxY; y++ {
		fy := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			fx := float64(x) + 0.5
			w0 := edge(p[1], p[2], fx, fy) / area
			w1 := edge(p[2], p[0], fx, fy) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*p[0].z + w1*p[1].z + w2*p[2].z
			idx := y*t.w + x
			if z >= t.depth[idx] {
				continue
			}
			col := mix3(c, w0, w1, w2)
			if blend {
				t.blend(x, y, col)
				continue
			}
			t.depth[idx] = z
			col.A = 255
			t.img.SetRGBA(x, y, col)
		}
	}
}

func edge(a, b screenPoint, x, y float64) float64 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func mix3(c [3]color.RGBA, w0, w1, w2 float64) color.RGBA {
	ch := func(a, b, d uint8) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(255, w0*float64(a)+w1*float64(b)+w2*float64(d)))))
	}
	return color.RGBA{
		R: ch(c[0].R, c[1].R, c[2].R),
		G: ch(c[0].G, c[1].G, c[2].G),
		B: ch(c[0].B, c[1].B, c[2].B),
		A: ch(c[0].A, c[1].A, c[2].A),
	}
}

// blend composites col over the pixel using col.A as coverage
func (t *target) blend(x, y int, col color.RGBA) {
	dst := t.img.RGBAAt(x, y)
	a := float64(col.A) / 255
	ch := func(s, d uint8) uint8 {
		return uint8(math.Round(float64(s)*a + float64(d)*(1-a)))
	}
	t.img.SetRGBA(x, y, color.RGBA{R: ch(col.R, dst.R), G: ch(col.G, dst.G), B: ch(col.B, dst.B), A: 255})
}

// drawLine draws a depth-tested line with Bresenham's algorithm
func (t *target) drawLine(a, b screenPoint, col color.RGBA) {
	x1, y1 := int(math.Round(a.x)), int(math.Round(a.y))
	x2, y2 := int(math.Round(b.x)), int(math.Round(b.y))

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	steps := math.Max(1, float64(max(dx, dy)))
	step := 0.0

	err := dx - dy
	for {
		if x1 >= 0 && x1 < t.w && y1 >= 0 && y1 < t.h {
			z := a.z + (b.z-a.z)*step/steps
			// lines lying on a surface must win against it
			if z-1e-4 <= t.depth[y1*t.w+x1] {
				if col.A < 255 {
					t.blend(x1, y1, col)
				} else {
					t.img.SetRGBA(x1, y1, col)
				}
			}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
		step++
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
