package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/philipparndt/goifc/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of goifc and of the IfcConvert it finds",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goifc %s\n", version.GetFullVersion())

		loader, err := newLoader(cmd.Context())
		if err != nil {
			fmt.Printf("IfcConvert: %v\n", err)
			return
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		v, err := loader.Converter().Version(ctx)
		if err != nil {
			fmt.Printf("IfcConvert: %v\n", err)
			return
		}
		fmt.Printf("IfcConvert %s\n", v)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
