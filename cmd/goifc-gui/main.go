package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/preview"
	"github.com/philipparndt/goifc/internal/recolor"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/internal/viewer"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/philipparndt/goifc/pkg/ifcconvert"
	"github.com/philipparndt/goifc/pkg/ifcloader"
)

const (
	previewWidth  = 800
	previewHeight = 600
)

type App struct {
	window   fyne.Window
	session  *viewer.Session
	renderer *preview.Renderer
	camera   preview.Camera

	nameLabel   *widget.Label
	countLabel  *widget.Label
	statusLabel *widget.Label
	progress    *widget.ProgressBar
	image       *canvas.Image

	// generation and state last drawn, to re-render only after a change
	shownGen   uint64
	shownState viewer.State
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Warn("using default settings", "error", err)
	}

	loader, err := newLoader(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	strategy, err := recolor.ByName(cfg.Viewer.Strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("goifc - IFC Model Inspector")

	opts := preview.DefaultOptions()
	opts.Width, opts.Height = previewWidth, previewHeight
	opts.Grid = cfg.Viewer.Grid
	opts.Axes = cfg.Viewer.Axes
	if bg, err := config.ParseHex(cfg.Viewer.Background); err == nil {
		opts.Background = scene.Hex(bg).RGBA(1)
	}

	inspector := &App{
		window:   w,
		renderer: preview.New(cfg.Renderer.Shader(), opts),
		camera:   preview.DefaultCamera(),
	}
	inspector.camera.FOVY = cfg.Viewer.FOV
	inspector.session = viewer.NewSession(loader, viewer.Options{
		Processor: &recolor.Processor{Strategy: strategy, Edges: cfg.Viewer.Edges},
		Fitter:    viewer.FitFunc(inspector.fit),
		Timeout:   cfg.Loader.Timeout.Duration,
	})
	defer inspector.session.Close()

	inspector.setupUI()
	inspector.render()

	if len(os.Args) > 1 {
		inspector.open(os.Args[1])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inspector.pollLoop(ctx)

	w.Resize(fyne.NewSize(1200, 800))
	w.ShowAndRun()
}

// newLoader builds the IFC loader; a missing converter is reported on load
func newLoader(cfg *config.Config) (*ifcloader.Loader, error) {
	conv, err := ifcconvert.New(cfg.Loader.ConverterOptions())
	if err != nil {
		return nil, err
	}
	if err := conv.CheckVersion(context.Background()); err != nil {
		slog.Warn("IfcConvert is not usable", "error", err)
	}
	return ifcloader.New(conv, ifc.NewManager()), nil
}

func (a *App) setupUI() {
	a.nameLabel = widget.NewLabel("No model loaded")
	a.nameLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.countLabel = widget.NewLabel("")
	a.statusLabel = widget.NewLabel("")
	a.statusLabel.Wrapping = fyne.TextWrapWord
	a.progress = widget.NewProgressBar()
	a.progress.Hide()

	a.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, previewWidth, previewHeight)))
	a.image.FillMode = canvas.ImageFillContain
	a.image.SetMinSize(fyne.NewSize(previewWidth/2, previewHeight/2))

	openButton := widget.NewButton("Open IFC File", func() {
		a.showFileDialog()
	})
	fitButton := widget.NewButton("Fit View", func() {
		if root := a.session.ModelRoot(); root != nil {
			a.fit(scene.BoundingBox(root))
			a.render()
		}
	})

	instructions := widget.NewLabel(
		"Instructions:\n" +
			"• Open an .ifc or .ifczip file\n" +
			"• Or drop a file onto this window\n" +
			"• Run goifc for the interactive 3D view",
	)
	instructions.Wrapping = fyne.TextWrapWord

	infoPanel := container.NewVBox(
		widget.NewLabel("Model Information:"),
		widget.NewSeparator(),
		a.nameLabel,
		a.countLabel,
		widget.NewSeparator(),
		a.progress,
		a.statusLabel,
		widget.NewSeparator(),
		instructions,
		widget.NewSeparator(),
		openButton,
		fitButton,
	)
	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(300, 0))

	content := container.NewBorder(
		nil,        // top
		nil,        // bottom
		nil,        // left
		infoScroll, // right
		a.image,    // center
	)
	a.window.SetContent(content)

	a.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		if len(uris) > 0 {
			a.open(uris[0].Path())
		}
	})
}

func (a *App) showFileDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.open(reader.URI().Path())
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".ifc", ".ifczip"}))
	d.Show()
}

func (a *App) open(path string) {
	fmt.Printf("Opening %s\n", path)
	a.session.Open(path)
	a.refresh()
}

// pollLoop drives the session from the UI thread until ctx is done
func (a *App) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fyne.Do(func() {
				if a.session.Poll() {
					a.refresh()
				}
			})
		}
	}
}

// refresh copies the session HUD into the widgets
func (a *App) refresh() {
	hud := a.session.HUD

	if hud.ModelName != "" {
		a.nameLabel.SetText(hud.ModelName)
	}
	if hud.StatsVisible {
		a.countLabel.SetText(hud.MeshCount)
	} else {
		a.countLabel.SetText("")
	}

	if hud.LoadingVisible {
		a.progress.SetValue(hud.Percent / 100)
		a.progress.Show()
		a.statusLabel.SetText(hud.Status)
	} else {
		a.progress.Hide()
		a.statusLabel.SetText("")
	}

	if hud.Alert != "" {
		dialog.ShowError(errors.New(hud.Alert), a.window)
		a.session.DismissAlert()
	}

	if gen, state := a.session.Generation(), a.session.State(); gen != a.shownGen || state != a.shownState {
		if state != viewer.StateLoading {
			a.render()
		}
		a.shownGen, a.shownState = gen, state
	}
}

// fit implements viewer.Fitter for the preview camera
func (a *App) fit(bbox geometry.BoundingBox) {
	if gridY, ok := a.camera.FitTo(bbox, float64(previewWidth)/previewHeight); ok {
		a.renderer.SetGridY(gridY)
	}
}

// render redraws the preview image from the session scene
func (a *App) render() {
	start := time.Now()
	img, err := a.renderer.Render(context.Background(), a.session.Scene, a.camera)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to render preview: %w", err), a.window)
		return
	}
	a.image.Image = img
	a.image.Refresh()
	slog.Debug("rendered preview", "elapsed", time.Since(start).Round(time.Millisecond))
}
