package cmd

import (
	"context"
	"log/slog"

	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/philipparndt/goifc/pkg/ifcconvert"
	"github.com/philipparndt/goifc/pkg/ifcloader"
)

// newLoader builds the IFC loader from the [loader] settings. A missing or
// outdated converter is only a warning: loads fail with the same error and
// the viewer shows it.
func newLoader(ctx context.Context) (*ifcloader.Loader, error) {
	conv, err := ifcconvert.New(cfg.Loader.ConverterOptions())
	if err != nil {
		return nil, err
	}
	if err := conv.CheckVersion(ctx); err != nil {
		slog.Warn("IfcConvert is not usable", "error", err)
	}
	return ifcloader.New(conv, ifc.NewManager()), nil
}
