package cmd

import (
	"errors"
	"fmt"

	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/spf13/cobra"
)

var stylesCmd = &cobra.Command{
	Use:   "styles [file]",
	Short: "List the resolved surface style of every element",
	Args:  cobra.ExactArgs(1),
	RunE:  runStyles,
}

var stylesMissing bool

func init() {
	stylesCmd.Flags().BoolVar(&stylesMissing, "missing", false, "only list elements without a surface style")
	rootCmd.AddCommand(stylesCmd)
}

func runStyles(cmd *cobra.Command, args []string) error {
	model, err := indexFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer model.Close()
	props := model.Props

	products, err := props.Products(model.ModelID)
	if err != nil {
		return err
	}
	for _, id := range products {
		label := fmt.Sprintf("#%d", id)
		if p, err := props.ItemProperties(model.ModelID, id); err == nil {
			label = fmt.Sprintf("#%d %s", id, p.Type)
			if p.Name != "" {
				label += " '" + p.Name + "'"
			}
		}

		style, err := props.SurfaceStyle(model.ModelID, id)
		switch {
		case errors.Is(err, ifc.ErrNotFound):
			fmt.Printf("%s: no style\n", label)
			continue
		case err != nil:
			return err
		}
		if stylesMissing {
			continue
		}

		desc := "no colour"
		if style.HasColour {
			c := scene.Color{R: style.Colour.R, G: style.Colour.G, B: style.Colour.B}
			desc = c.String()
		}
		if style.HasTransparency {
			desc += fmt.Sprintf(", opacity %.2f", style.Opacity())
		}
		if style.Name != "" {
			desc += fmt.Sprintf(" (%s)", style.Name)
		}
		fmt.Printf("%s: %s\n", label, desc)
	}
	return nil
}
