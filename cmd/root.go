package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/philipparndt/goifc/internal/app"
	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/recolor"
	"github.com/philipparndt/goifc/version"
	"github.com/spf13/cobra"
)

// commands carrying this annotation run on the default config
const skipConfigAnnotation = "goifc/skip-config"

var (
	configPath string
	verbose    bool

	// loaded in PersistentPreRun, never nil afterwards
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "goifc [file]",
	Short: "3D viewer for IFC building models",
	Long: `goifc is a 3D viewer for IFC (Industry Foundation Classes) building models.
It tessellates .ifc and .ifczip files with IfcOpenShell's IfcConvert, colours
every element from its IFC surface style and shows the result in an orbit view.`,
	Version:           version.GetFullVersion(),
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setup,
	RunE:              runView,
	SilenceUsage:      true,
}

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Open the interactive viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runView,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	for _, c := range []*cobra.Command{rootCmd, viewCmd} {
		c.Flags().Bool("watch", false, "reload the model when the file changes")
		c.Flags().String("strategy", "", "recolor strategy: style, forced or passthrough")
		c.Flags().Bool("edges", true, "draw outline edges")
	}
	rootCmd.AddCommand(viewCmd)
}

// setup configures logging and loads the config file
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cmd.Annotations[skipConfigAnnotation] != "" {
		cfg = config.Default()
		return nil
	}
	c, err := config.Load(configPath)
	if err != nil {
		slog.Warn("using default settings", "error", err)
	}
	cfg = c
	return nil
}

// applyViewFlags copies explicitly set flags over the config values
func applyViewFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("watch") {
		cfg.Viewer.Watch, _ = flags.GetBool("watch")
	}
	if flags.Changed("edges") {
		cfg.Viewer.Edges, _ = flags.GetBool("edges")
	}
	if flags.Changed("strategy") {
		name, _ := flags.GetString("strategy")
		if _, err := recolor.ByName(name); err != nil {
			return err
		}
		cfg.Viewer.Strategy = name
	}
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	if err := applyViewFlags(cmd); err != nil {
		return err
	}
	loader, err := newLoader(cmd.Context())
	if err != nil {
		return err
	}

	opts := app.Options{Config: cfg, Loader: loader}
	if len(args) == 1 {
		opts.File = args[0]
	}
	return app.Run(opts)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
