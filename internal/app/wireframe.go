package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/goifc/internal/preview"
	"github.com/philipparndt/goifc/internal/scene"
)

func hexColor(h uint32, alpha uint8) rl.Color {
	return rl.NewColor(uint8(h>>16), uint8(h>>8), uint8(h), alpha)
}

// drawLines renders every line node: the placeholder outline and, when
// enabled, the model edges
func (app *App) drawLines() {
	edges := app.session.EdgeGroup()
	for _, n := range app.session.Scene.LineNodes() {
		if !app.View.showEdges && edges != nil && n.Parent == edges {
			continue
		}
		if n.Lines == nil || n.Lines.Material == nil {
			continue
		}
		mat := n.Lines.Material
		col := hexColor(mat.Color.Hex(), uint8(mat.Opacity*255+0.5))
		world := n.WorldMatrix()
		seg := n.Lines.Segments
		for i := 0; i+1 < len(seg); i += 2 {
			a := scene.TransformPoint(world, seg[i])
			b := scene.TransformPoint(world, seg[i+1])
			rl.DrawLine3D(
				rl.Vector3{X: float32(a.X), Y: float32(a.Y), Z: float32(a.Z)},
				rl.Vector3{X: float32(b.X), Y: float32(b.Y), Z: float32(b.Z)},
				col,
			)
		}
	}
}

// drawGrid draws the ground grid at the fitted height
func (app *App) drawGrid() {
	half := float32(preview.GridSize) / 2
	step := float32(preview.GridSize) / preview.GridDivisions
	y := float32(app.View.gridY)
	center := hexColor(preview.GridCenterColor, 255)
	line := hexColor(preview.GridColor, 255)

	for i := 0; i <= preview.GridDivisions; i++ {
		v := -half + float32(i)*step
		col := line
		if i == preview.GridDivisions/2 {
			col = center
		}
		rl.DrawLine3D(rl.Vector3{X: v, Y: y, Z: -half}, rl.Vector3{X: v, Y: y, Z: half}, col)
		rl.DrawLine3D(rl.Vector3{X: -half, Y: y, Z: v}, rl.Vector3{X: half, Y: y, Z: v}, col)
	}
}

// drawAxes draws the X (red), Y (green) and Z (blue) axes at the origin
func (app *App) drawAxes() {
	o := rl.Vector3{}
	l := float32(preview.AxesLength)
	rl.DrawLine3D(o, rl.Vector3{X: l}, rl.Red)
	rl.DrawLine3D(o, rl.Vector3{Y: l}, rl.Green)
	rl.DrawLine3D(o, rl.Vector3{Z: l}, rl.Blue)
}
