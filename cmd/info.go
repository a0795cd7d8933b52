package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/muesli/termenv"
	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/philipparndt/goifc/pkg/ifcloader"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about an IFC file",
	Long:  "Show the schema, the number of elements per IFC class and how many of them carry a surface style.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// indexFile reads the STEP records of filename without tessellating it
func indexFile(ctx context.Context, filename string) (*ifcloader.Model, error) {
	return ifcloader.New(nil, ifc.NewManager()).Index(ctx, filename)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	model, err := indexFile(cmd.Context(), filename)
	if err != nil {
		return err
	}
	defer model.Close()
	props := model.Props

	schema, err := props.Schema(model.ModelID)
	if err != nil {
		return err
	}
	counts, err := props.ProductCounts(model.ModelID)
	if err != nil {
		return err
	}
	products, err := props.Products(model.ModelID)
	if err != nil {
		return err
	}
	styledItems, err := props.StyledItemCount(model.ModelID)
	if err != nil {
		return err
	}
	styled := 0
	for _, id := range products {
		if _, err := props.SurfaceStyle(model.ModelID, id); err == nil {
			styled++
		}
	}

	out := termenv.NewOutput(os.Stdout)
	heading := func(s string) termenv.Style {
		return out.String(s).Bold().Foreground(out.Color("#4488ff"))
	}

	fmt.Println(heading("IFC File Information"))
	fmt.Println("====================")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Schema: %s\n\n", strings.Join(schema, ", "))

	fmt.Println(heading("Elements:"))
	classes := make([]string, 0, len(counts))
	total := 0
	for class, n := range counts {
		classes = append(classes, class)
		total += n
	}
	sort.Slice(classes, func(i, j int) bool {
		if counts[classes[i]] != counts[classes[j]] {
			return counts[classes[i]] > counts[classes[j]]
		}
		return classes[i] < classes[j]
	})
	for _, class := range classes {
		fmt.Printf("  %-28s %6d\n", class, counts[class])
	}
	fmt.Printf("  %-28s %6d\n\n", "Total", total)

	fmt.Println(heading("Styles:"))
	fmt.Printf("  Styled items: %d\n", styledItems)
	coverage := out.String(fmt.Sprintf("%d/%d", styled, len(products)))
	switch {
	case len(products) == 0:
	case styled == len(products):
		coverage = coverage.Foreground(out.Color("2"))
	case styled == 0:
		coverage = coverage.Foreground(out.Color("1"))
	default:
		coverage = coverage.Foreground(out.Color("3"))
	}
	fmt.Printf("  Elements with a surface style: %s\n", coverage)
	return nil
}
