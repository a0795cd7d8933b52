package app

import (
	"errors"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sqweek/dialog"
)

// handleFocus drops held keys and any drag when the window loses focus
func (app *App) handleFocus() {
	if app.Interaction.keys.SetFocus(rl.IsWindowFocused()) {
		app.Interaction.dragging = false
	}
}

// handleInput processes user input
func (app *App) handleInput() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		if len(files) > 0 {
			app.open(files[0])
		}
		rl.UnloadDroppedFiles()
	}

	// The alert box is modal
	if app.session.HUD.Alert != "" {
		app.Interaction.keys.Move.ReleaseAll()
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyEscape) || rl.IsKeyPressed(rl.KeySpace) ||
			(rl.IsMouseButtonPressed(rl.MouseLeftButton) && rl.CheckCollisionPointRec(rl.GetMousePosition(), alertButton())) {
			app.session.DismissAlert()
		}
		return
	}

	if rl.IsKeyPressed(rl.KeyO) {
		app.pickFile()
		return
	}
	if rl.IsKeyPressed(rl.KeyF) || rl.IsKeyPressed(rl.KeyHome) {
		app.refit()
	}
	if rl.IsKeyPressed(rl.KeyG) {
		app.View.showGrid = !app.View.showGrid
	}
	if rl.IsKeyPressed(rl.KeyX) {
		app.View.showAxes = !app.View.showAxes
	}
	if rl.IsKeyPressed(rl.KeyE) {
		app.View.showEdges = !app.View.showEdges
	}
	if rl.IsKeyPressed(rl.KeyH) || rl.IsKeyPressed(rl.KeyF1) {
		app.View.showHelp = !app.View.showHelp
	}

	app.updateMoveState()
	app.handleMouse()
	app.handleTouch()
}

// updateMoveState samples the movement keys for this frame
func (app *App) updateMoveState() {
	m := &app.Interaction.keys.Move
	m.Forward = rl.IsKeyDown(rl.KeyW)
	m.Backward = rl.IsKeyDown(rl.KeyS)
	m.Left = rl.IsKeyDown(rl.KeyA)
	m.Right = rl.IsKeyDown(rl.KeyD)
	m.Up = rl.IsKeyDown(rl.KeySpace)
	m.Down = rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
}

// handleMouse maps left drag to rotate, middle drag to dolly, right drag to pan
func (app *App) handleMouse() {
	o := app.Camera.orbit
	h := viewportHeight()

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		o.Dolly(float64(wheel))
	}

	for _, b := range []rl.MouseButton{rl.MouseLeftButton, rl.MouseMiddleButton, rl.MouseRightButton} {
		if rl.IsMouseButtonPressed(b) && !app.Interaction.dragging {
			app.Interaction.dragButton = b
			app.Interaction.dragging = true
		}
	}
	if !app.Interaction.dragging {
		return
	}
	if !rl.IsMouseButtonDown(app.Interaction.dragButton) {
		app.Interaction.dragging = false
		return
	}

	delta := rl.GetMouseDelta()
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	dx, dy := float64(delta.X), float64(delta.Y)
	switch app.Interaction.dragButton {
	case rl.MouseLeftButton:
		o.Rotate(dx, dy, h)
	case rl.MouseMiddleButton:
		o.Dolly(-dy / 10)
	case rl.MouseRightButton:
		o.Pan(dx, dy, h, mgl64.DegToRad(app.Camera.fovY))
	}
}

// handleTouch maps a two finger gesture to dolly and pan. One finger arrives
// as a left mouse drag.
func (app *App) handleTouch() {
	t := &app.Interaction
	if rl.GetTouchPointCount() != 2 {
		t.touchActive = false
		return
	}
	a, b := rl.GetTouchPosition(0), rl.GetTouchPosition(1)
	dist := rl.Vector2Distance(a, b)
	mid := rl.Vector2Scale(rl.Vector2Add(a, b), 0.5)
	if t.touchActive && t.touchDist > 0 {
		o := app.Camera.orbit
		// pinching out moves closer
		o.Dolly(float64(dist-t.touchDist) / 20)
		o.Pan(float64(mid.X-t.touchMid.X), float64(mid.Y-t.touchMid.Y), viewportHeight(), mgl64.DegToRad(app.Camera.fovY))
	}
	t.touchActive = true
	t.touchDist = dist
	t.touchMid = mid
	// the emulated mouse must not rotate at the same time
	t.dragging = false
}

// pickFile shows the native open dialog
func (app *App) pickFile() {
	app.Interaction.keys.Move.ReleaseAll()
	filename, err := dialog.File().
		Filter("IFC files", "ifc", "ifczip").
		Title("Open IFC model").
		Load()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			slog.Warn("file dialog failed", "error", err)
		}
		return
	}
	if filename != "" {
		app.open(filename)
	}
}
