package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/scene"
)

func toRL(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X()), Y: float32(v.Y()), Z: float32(v.Z())}
}

// syncCamera copies the orbit pose into the raylib camera
func (app *App) syncCamera() {
	app.Camera.camera = rl.Camera3D{
		Position:   toRL(app.Camera.orbit.Position()),
		Target:     toRL(app.Camera.orbit.Target()),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       float32(app.Camera.fovY),
		Projection: rl.CameraPerspective,
	}
}

// refit places the camera in front of the current model, or back at the
// start view when there is none
func (app *App) refit() {
	if root := app.session.ModelRoot(); root != nil {
		app.fit(scene.BoundingBox(root))
		return
	}
	app.Camera.orbit.SetView(mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, 0, 0})
	app.View.gridY = 0
	app.syncCamera()
}

// viewportHeight returns the drawable height in pixels
func viewportHeight() float64 {
	return float64(max(rl.GetScreenHeight(), 1))
}
