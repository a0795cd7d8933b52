package app

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/goifc/version"
)

const (
	fontSize12 = float32(12)
	fontSize14 = float32(14)
	fontSize16 = float32(16)
	fontSize18 = float32(18)
	lineHeight = float32(20)
)

var (
	panelColor  = rl.NewColor(0, 0, 0, 180)
	accentColor = rl.NewColor(0x44, 0x88, 0xff, 255)
)

var helpLines = []string{
	"O: Open file | Drop file: Open",
	"Left Drag: Rotate | Right Drag: Pan",
	"Wheel / Middle Drag: Zoom",
	"W A S D: Move | Space / Shift: Up / Down",
	"F, Home: Fit model",
	"G: Grid | X: Axes | E: Edges",
	"H: Toggle this help",
}

// drawUI draws the user interface
func (app *App) drawUI() {
	hud := app.session.HUD
	screenWidth := float32(rl.GetScreenWidth())
	screenHeight := float32(rl.GetScreenHeight())

	y := float32(10)
	if hud.InfoVisible {
		y = app.drawInfoPanel(y)
	}
	if hud.StatsVisible {
		y = app.drawStatsPanel(y)
	}

	if app.View.showHelp {
		app.drawHelpPanel(y + lineHeight)
	} else {
		rl.DrawTextEx(app.UI.font, "H: Help", rl.Vector2{X: screenWidth - 70, Y: 10}, fontSize14, 1, rl.LightGray)
	}

	if hud.LoadingVisible {
		app.drawLoadingOverlay(screenWidth, screenHeight)
	}

	// Version and FPS in bottom-left corner
	bottomY := screenHeight - 30
	versionText := fmt.Sprintf("v%s", version.GetVersion())
	rl.DrawTextEx(app.UI.font, versionText, rl.Vector2{X: 10, Y: bottomY}, fontSize12, 1, rl.Gray)

	fpsText := fmt.Sprintf("FPS: %d", rl.GetFPS())
	versionWidth := rl.MeasureTextEx(app.UI.font, versionText, fontSize12, 1).X
	rl.DrawTextEx(app.UI.font, fpsText, rl.Vector2{X: 10 + versionWidth + 15, Y: bottomY}, fontSize12, 1, rl.Lime)

	if hud.Alert != "" {
		app.drawAlert(hud.Alert, screenWidth, screenHeight)
	}
}

func (app *App) drawInfoPanel(y float32) float32 {
	name := app.session.HUD.ModelName
	if name == "" {
		name = "No model loaded"
	}
	rl.DrawTextEx(app.UI.font, "Model:", rl.Vector2{X: 10, Y: y}, fontSize16, 1, rl.Yellow)
	y += lineHeight
	rl.DrawTextEx(app.UI.font, "  "+name, rl.Vector2{X: 10, Y: y}, fontSize14, 1, rl.White)
	return y + lineHeight*1.5
}

func (app *App) drawStatsPanel(y float32) float32 {
	rl.DrawTextEx(app.UI.font, "Statistics:", rl.Vector2{X: 10, Y: y}, fontSize16, 1, rl.Yellow)
	y += lineHeight
	rl.DrawTextEx(app.UI.font, "  "+app.session.HUD.MeshCount, rl.Vector2{X: 10, Y: y}, fontSize14, 1, rl.NewColor(100, 200, 255, 255))
	return y + lineHeight*1.5
}

func (app *App) drawHelpPanel(y float32) {
	rl.DrawTextEx(app.UI.font, "Controls:", rl.Vector2{X: 10, Y: y}, fontSize16, 1, rl.Yellow)
	y += lineHeight
	for _, line := range helpLines {
		rl.DrawTextEx(app.UI.font, "  "+line, rl.Vector2{X: 10, Y: y}, fontSize14, 1, rl.LightGray)
		y += lineHeight
	}
}

// drawLoadingOverlay dims the view and shows a centered progress bar
func (app *App) drawLoadingOverlay(screenWidth, screenHeight float32) {
	hud := app.session.HUD
	rl.DrawRectangle(0, 0, int32(screenWidth), int32(screenHeight), rl.NewColor(0, 0, 0, 120))

	boxWidth := float32(360)
	boxHeight := float32(90)
	boxX := (screenWidth - boxWidth) / 2
	boxY := (screenHeight - boxHeight) / 2
	rl.DrawRectangle(int32(boxX), int32(boxY), int32(boxWidth), int32(boxHeight), panelColor)
	rl.DrawRectangleLines(int32(boxX), int32(boxY), int32(boxWidth), int32(boxHeight), accentColor)

	status := hud.Status
	if status == "" {
		status = "Loading..."
	}
	textSize := rl.MeasureTextEx(app.UI.font, status, fontSize18, 1)
	rl.DrawTextEx(app.UI.font, status, rl.Vector2{X: boxX + (boxWidth-textSize.X)/2, Y: boxY + 15}, fontSize18, 1, rl.White)

	barX := boxX + 20
	barY := boxY + 50
	barWidth := boxWidth - 40
	barHeight := float32(14)
	rl.DrawRectangle(int32(barX), int32(barY), int32(barWidth), int32(barHeight), rl.NewColor(0x22, 0x33, 0x44, 255))
	fill := barWidth * float32(hud.Percent) / 100
	rl.DrawRectangle(int32(barX), int32(barY), int32(fill), int32(barHeight), accentColor)

	pct := fmt.Sprintf("%.0f%%", hud.Percent)
	pctSize := rl.MeasureTextEx(app.UI.font, pct, fontSize12, 1)
	rl.DrawTextEx(app.UI.font, pct, rl.Vector2{X: barX + (barWidth-pctSize.X)/2, Y: barY + barHeight + 4}, fontSize12, 1, rl.LightGray)
}

// alertBox returns the bounds of the error dialog
func alertBox() rl.Rectangle {
	w := float32(460)
	h := float32(140)
	return rl.Rectangle{
		X:      (float32(rl.GetScreenWidth()) - w) / 2,
		Y:      (float32(rl.GetScreenHeight()) - h) / 2,
		Width:  w,
		Height: h,
	}
}

// alertButton returns the bounds of the OK button of the error dialog
func alertButton() rl.Rectangle {
	box := alertBox()
	return rl.Rectangle{
		X:      box.X + box.Width/2 - 40,
		Y:      box.Y + box.Height - 40,
		Width:  80,
		Height: 28,
	}
}

func (app *App) drawAlert(message string, screenWidth, screenHeight float32) {
	rl.DrawRectangle(0, 0, int32(screenWidth), int32(screenHeight), rl.NewColor(0, 0, 0, 150))

	box := alertBox()
	rl.DrawRectangleRec(box, rl.NewColor(0x1a, 0x1f, 0x2e, 240))
	rl.DrawRectangleLinesEx(box, 1, rl.Red)

	lines := wrapText(app.UI.font, message, fontSize14, box.Width-30)
	y := box.Y + 15
	for i, line := range lines {
		if i == 4 {
			break
		}
		rl.DrawTextEx(app.UI.font, line, rl.Vector2{X: box.X + 15, Y: y}, fontSize14, 1, rl.White)
		y += lineHeight
	}

	btn := alertButton()
	btnColor := accentColor
	if rl.CheckCollisionPointRec(rl.GetMousePosition(), btn) {
		btnColor = rl.NewColor(0x66, 0xaa, 0xff, 255)
	}
	rl.DrawRectangleRec(btn, btnColor)
	okSize := rl.MeasureTextEx(app.UI.font, "OK", fontSize16, 1)
	rl.DrawTextEx(app.UI.font, "OK", rl.Vector2{X: btn.X + (btn.Width-okSize.X)/2, Y: btn.Y + (btn.Height-okSize.Y)/2}, fontSize16, 1, rl.White)
}

// wrapText breaks text into lines no wider than width
func wrapText(font rl.Font, text string, size, width float32) []string {
	var lines []string
	line := ""
	word := ""
	flush := func() {
		if word == "" {
			return
		}
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && rl.MeasureTextEx(font, candidate, size, 1).X > width {
			lines = append(lines, line)
			line = word
		} else {
			line = candidate
		}
		word = ""
	}
	for _, r := range text {
		if r == ' ' || r == '\n' {
			flush()
			if r == '\n' && line != "" {
				lines = append(lines, line)
				line = ""
			}
			continue
		}
		word += string(r)
	}
	flush()
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
