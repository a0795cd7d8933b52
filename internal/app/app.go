// Package app runs the interactive raylib viewer.
package app

import (
	"context"
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/lighting"
	"github.com/philipparndt/goifc/internal/navigation"
	"github.com/philipparndt/goifc/internal/recolor"
	"github.com/philipparndt/goifc/internal/viewer"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/version"
)

// Options configure Run
type Options struct {
	Config *config.Config
	Loader viewer.Loader
	File   string // opened right after start when not empty
}

type App struct {
	Camera      CameraState
	View        ViewSettings
	Interaction InteractionState
	FileWatch   FileWatchState
	UI          UIState

	cfg     *config.Config
	session *viewer.Session
	shader  *lighting.Shader
	gpu     *meshCache
}

// Run opens the viewer window and blocks until it is closed
func Run(opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	strategy, err := recolor.ByName(cfg.Viewer.Strategy)
	if err != nil {
		return err
	}
	bg, err := config.ParseHex(cfg.Viewer.Background)
	if err != nil {
		return err
	}

	app := &App{
		cfg: cfg,
		Camera: CameraState{
			fovY: cfg.Viewer.FOV,
			orbit: navigation.NewOrbit(
				mgl64.Vec3{5, 5, 5},
				mgl64.Vec3{0, 0, 0},
				orbitOptions(cfg.Controls),
			),
		},
		View: ViewSettings{
			background: rl.NewColor(uint8(bg>>16), uint8(bg>>8), uint8(bg), 255),
			showGrid:   cfg.Viewer.Grid,
			showAxes:   cfg.Viewer.Axes,
			showEdges:  cfg.Viewer.Edges,
			shadows:    cfg.Renderer.Shadows,
		},
		FileWatch: FileWatchState{
			enabled: cfg.Viewer.Watch,
			reloads: make(chan string, 1),
		},
		shader: cfg.Renderer.Shader(),
	}
	app.Interaction.keys = navigation.NewKeyboard()
	app.session = viewer.NewSession(opts.Loader, viewer.Options{
		Processor: &recolor.Processor{Strategy: strategy, Edges: cfg.Viewer.Edges},
		Fitter:    viewer.FitFunc(app.fit),
		Timeout:   cfg.Loader.Timeout.Duration,
	})
	defer app.session.Close()

	var flags uint32 = rl.FlagWindowResizable
	if cfg.Renderer.Antialias {
		flags |= rl.FlagMsaa4xHint
	}
	if cfg.Renderer.PixelRatioCap > 1 {
		flags |= rl.FlagWindowHighdpi
	}
	if cfg.Renderer.Alpha {
		flags |= rl.FlagWindowTransparent
	}
	rl.SetConfigFlags(flags) // Must be before InitWindow
	rl.InitWindow(int32(cfg.Viewer.Width), int32(cfg.Viewer.Height), "goifc "+version.GetVersion())
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Renderer.TargetFPS))
	rl.SetExitKey(0)
	rl.SetClipPlanes(cfg.Viewer.Near, cfg.Viewer.Far)

	app.UI.font = rl.GetFontDefault()
	app.gpu = newMeshCache(app.shader)
	defer app.gpu.unloadAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.setupFileWatcher(ctx); err != nil {
		slog.Warn("auto-reload is not available", "error", err)
	}
	defer app.closeFileWatcher()

	if opts.File != "" {
		app.open(opts.File)
	}
	app.syncCamera()

	slog.Info("viewer started", "strategy", strategy.Name(), "edges", cfg.Viewer.Edges)
	for !rl.WindowShouldClose() {
		app.frame(float64(rl.GetFrameTime()))
	}
	return nil
}

// frame runs one iteration of the render loop
func (app *App) frame(dt float64) {
	app.handleFocus()
	app.handleInput()
	app.handleReloads()

	app.Interaction.keys.Step(app.Camera.orbit)
	app.Camera.orbit.Update(dt)
	app.syncCamera()

	app.session.Poll()
	app.gpu.sync(app.session.Scene)

	rl.BeginDrawing()
	rl.ClearBackground(app.View.background)

	rl.BeginMode3D(app.Camera.camera)
	app.drawScene()
	rl.EndMode3D()

	app.drawUI()
	rl.EndDrawing()
}

// open starts loading path and points the file watcher at it
func (app *App) open(path string) {
	fmt.Printf("Opening %s\n", path)
	app.session.Open(path)
	app.watchFile(path)
}

// fit implements viewer.Fitter for the raylib camera
func (app *App) fit(bbox geometry.BoundingBox) {
	aspect := float64(rl.GetScreenWidth()) / float64(max(rl.GetScreenHeight(), 1))
	res, ok := navigation.Fit(bbox, mgl64.DegToRad(app.Camera.fovY), aspect)
	if !ok {
		return
	}
	app.Camera.orbit.SetView(res.Position, res.Target)
	app.Interaction.keys.Speed = res.MoveSpeed
	app.View.gridY = res.GridY
	app.syncCamera()
	slog.Debug("fitted camera", "distance", res.Distance, "grid", res.GridY, "speed", res.MoveSpeed)
}

func orbitOptions(c config.Controls) navigation.OrbitOptions {
	return navigation.OrbitOptions{
		EnableDamping:      c.EnableDamping,
		DampingFactor:      c.DampingFactor,
		MinDistance:        c.MinDistance,
		MaxDistance:        c.MaxDistance,
		EnablePan:          c.EnablePan,
		PanSpeed:           c.PanSpeed,
		ScreenSpacePanning: c.ScreenSpacePanning,
		RotateSpeed:        c.RotateSpeed,
		ZoomSpeed:          c.ZoomSpeed,
	}
}
