// Package ifcloader turns an IFC file into a scene graph: it indexes the
// STEP records for property queries, tessellates the geometry with
// IfcConvert and decodes the resulting binary glTF.
package ifcloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/philipparndt/goifc/pkg/ifcconvert"
	"github.com/qmuntal/gltf"
)

// ProgressScale is the Total reported for the converter and decode stages
const ProgressScale = 1000

// share of the overall progress each stage covers, in ProgressScale units
const (
	indexEnd   = 300
	convertEnd = 900
)

// Progress reports how far a load is. Total is 0 when the size is unknown.
type Progress struct {
	Stage  string
	Loaded int64
	Total  int64
}

// ProgressFunc receives load progress. It is called from the loading goroutine.
type ProgressFunc func(Progress)

// Model is a loaded IFC file
type Model struct {
	Root    *scene.Node
	ModelID int
	Name    string
	Props   *ifc.Manager
}

// Close releases the model's property index
func (m *Model) Close() {
	if m != nil && m.Props != nil {
		m.Props.CloseModel(m.ModelID)
	}
}

// Loader loads IFC and IFCZIP files
type Loader struct {
	conv    *ifcconvert.Converter
	props   *ifc.Manager
	tempDir string // parent of per-load scratch directories, "" for the OS default
}

// New creates a loader that registers models with props
func New(conv *ifcconvert.Converter, props *ifc.Manager) *Loader {
	return &Loader{conv: conv, props: props}
}

// SetTempDir changes where scratch files are created
func (l *Loader) SetTempDir(dir string) {
	l.tempDir = dir
}

// Converter returns the tessellator, nil for an index-only loader
func (l *Loader) Converter() *ifcconvert.Converter {
	return l.conv
}

// Props returns the property manager models are registered with
func (l *Loader) Props() *ifc.Manager {
	return l.props
}

// Load reads path and returns the model. Scratch files are removed before
// Load returns, whether it succeeds or not.
func (l *Loader) Load(ctx context.Context, path string, progress ProgressFunc) (*Model, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	start := time.Now()

	work, err := os.MkdirTemp(l.tempDir, "goifc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(work); err != nil {
			slog.Warn("failed to remove scratch directory", "dir", work, "error", err)
		}
	}()

	ifcPath, err := l.unpack(path, work)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modelID, err := l.props.OpenFile(ctx, ifcPath, func(read, total int64) {
		if total <= 0 {
			progress(Progress{Stage: "Reading", Loaded: read})
			return
		}
		progress(Progress{Stage: "Reading", Loaded: read * indexEnd / total, Total: ProgressScale})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	root, err := l.tessellate(ctx, ifcPath, work, modelID, filepath.Base(path), progress)
	if err != nil {
		l.props.CloseModel(modelID)
		return nil, err
	}

	progress(Progress{Stage: "Done", Loaded: ProgressScale, Total: ProgressScale})
	slog.Info("loaded model",
		"file", filepath.Base(path),
		"meshes", scene.CountMeshes(root),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &Model{
		Root:    root,
		ModelID: modelID,
		Name:    filepath.Base(path),
		Props:   l.props,
	}, nil
}

// Index reads only the STEP records of path, without tessellating. The
// returned model has no Root.
func (l *Loader) Index(ctx context.Context, path string) (*Model, error) {
	work, err := os.MkdirTemp(l.tempDir, "goifc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(work)

	ifcPath, err := l.unpack(path, work)
	if err != nil {
		return nil, err
	}
	modelID, err := l.props.OpenFile(ctx, ifcPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return &Model{ModelID: modelID, Name: filepath.Base(path), Props: l.props}, nil
}

func (l *Loader) tessellate(ctx context.Context, ifcPath, work string, modelID int, name string, progress ProgressFunc) (*scene.Node, error) {
	glbPath := filepath.Join(work, strings.TrimSuffix(filepath.Base(ifcPath), filepath.Ext(ifcPath))+".glb")

	progress(Progress{Stage: "Converting", Loaded: indexEnd, Total: ProgressScale})
	err := l.conv.Convert(ctx, ifcPath, glbPath, func(f float64) {
		progress(Progress{
			Stage:  "Converting",
			Loaded: indexEnd + int64(f*float64(convertEnd-indexEnd)),
			Total:  ProgressScale,
		})
	})
	if err != nil {
		return nil, err
	}

	progress(Progress{Stage: "Building scene", Loaded: convertEnd, Total: ProgressScale})
	doc, err := gltf.Open(glbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode converter output: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolve := NameResolver(func(guid string) (int, error) {
		return l.props.ExpressIDForGUID(modelID, guid)
	})
	return BuildScene(doc, name, resolve)
}
