package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/preview"
	"github.com/philipparndt/goifc/internal/recolor"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/ifcloader"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [file]",
	Short: "Render an IFC file to a PNG image without opening a window",
	Long: `Load the model, recolor it like the viewer does, fit the camera and write a
software-rendered PNG. With antialiasing enabled the image is rendered at twice
the size and scaled down.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

var (
	snapshotOutput string
	snapshotWidth  int
	snapshotHeight int
	snapshotGrid   bool
)

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "output PNG (default <file>.png)")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", 1280, "image width")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", 800, "image height")
	snapshotCmd.Flags().BoolVar(&snapshotGrid, "grid", true, "draw the ground grid and axes")
	snapshotCmd.Flags().String("strategy", "", "recolor strategy: style, forced or passthrough")
	snapshotCmd.Flags().Bool("edges", true, "draw outline edges")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	if snapshotWidth <= 0 || snapshotHeight <= 0 {
		return fmt.Errorf("invalid image size %dx%d", snapshotWidth, snapshotHeight)
	}
	if err := applyViewFlags(cmd); err != nil {
		return err
	}
	input := args[0]
	output := snapshotOutput
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".png"
	}

	ctx := cmd.Context()
	if cfg.Loader.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Loader.Timeout.Duration)
		defer cancel()
	}

	loader, err := newLoader(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Loading %s\n", input)
	model, err := loader.Load(ctx, input, printProgress())
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", input, err)
	}
	defer model.Close()

	s, err := buildSnapshotScene(ctx, model)
	if err != nil {
		return err
	}

	img, err := renderSnapshot(ctx, s, model.Root, snapshotWidth, snapshotHeight)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := preview.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d)\n", output, snapshotWidth, snapshotHeight)
	return nil
}

// buildSnapshotScene recolors the model and puts it into a fresh scene
func buildSnapshotScene(ctx context.Context, model *ifcloader.Model) (*scene.Scene, error) {
	strategy, err := recolor.ByName(cfg.Viewer.Strategy)
	if err != nil {
		return nil, err
	}
	proc := &recolor.Processor{Strategy: strategy, Edges: cfg.Viewer.Edges}
	ref := recolor.ModelRef{ID: model.ModelID}
	if model.Props != nil {
		ref.Props = model.Props
	}
	res, err := proc.Process(ctx, model.Root, ref)
	if err != nil {
		return nil, err
	}

	s := scene.New()
	s.Add(model.Root)
	if res.EdgeGroup != nil {
		s.Add(res.EdgeGroup)
	}
	fmt.Printf("%d objects\n", res.Meshes)
	return s, nil
}

// renderSnapshot fits the camera to root and renders s
func renderSnapshot(ctx context.Context, s *scene.Scene, root *scene.Node, width, height int) (image.Image, error) {
	bg, err := config.ParseHex(cfg.Viewer.Background)
	if err != nil {
		return nil, err
	}

	scale := 1
	if cfg.Renderer.Antialias {
		scale = 2
	}
	opts := preview.Options{
		Width:      width * scale,
		Height:     height * scale,
		Background: scene.Hex(bg).RGBA(1),
		Grid:       snapshotGrid && cfg.Viewer.Grid,
		Axes:       snapshotGrid && cfg.Viewer.Axes,
	}
	r := preview.New(cfg.Renderer.Shader(), opts)

	cam := preview.DefaultCamera()
	cam.FOVY = cfg.Viewer.FOV
	cam.Near = cfg.Viewer.Near
	cam.Far = cfg.Viewer.Far
	if gridY, ok := cam.FitTo(scene.BoundingBox(root), float64(width)/float64(height)); ok {
		r.SetGridY(gridY)
	}

	img, err := r.Render(ctx, s, cam)
	if err != nil {
		return nil, err
	}
	if scale == 1 {
		return img, nil
	}
	return preview.Scale(img, width, height), nil
}

// printProgress returns a progress callback that redraws one status line
func printProgress() ifcloader.ProgressFunc {
	last := ""
	return func(p ifcloader.Progress) {
		line := p.Stage
		if p.Total > 0 {
			line = fmt.Sprintf("%s: %.0f%%", p.Stage, float64(p.Loaded)*100/float64(p.Total))
		}
		if line == last {
			return
		}
		last = line
		fmt.Printf("\r%-40s", line)
	}
}
