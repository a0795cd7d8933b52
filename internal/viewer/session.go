// Package viewer holds the model session of the viewer: which model is
// shown, the load in flight and the HUD state that describes both. It is
// independent of the rendering engine; the render loop calls Poll once
// per frame and draws Scene and HUD.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/philipparndt/goifc/internal/recolor"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifcloader"
)

// ErrSuperseded is the cancellation cause of a load replaced by a newer Open
var ErrSuperseded = errors.New("load superseded by a newer file")

// State of the session
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Loader produces a model from a file
type Loader interface {
	Load(ctx context.Context, path string, progress ifcloader.ProgressFunc) (*ifcloader.Model, error)
}

// Fitter positions the camera for a freshly loaded model
type Fitter interface {
	Fit(bbox geometry.BoundingBox)
}

// FitFunc adapts a function to a Fitter
type FitFunc func(geometry.BoundingBox)

func (f FitFunc) Fit(b geometry.BoundingBox) { f(b) }

// HUD is everything the overlay panels show
type HUD struct {
	ModelName      string
	MeshCount      string
	InfoVisible    bool
	StatsVisible   bool
	LoadingVisible bool
	Percent        float64 // 0..100
	Status         string
	Alert          string // empty when no alert is raised
}

// Options configure a Session
type Options struct {
	Processor *recolor.Processor
	Fitter    Fitter
	Timeout   time.Duration // 0 disables the load timeout
}

type result struct {
	model *ifcloader.Model
	edges *scene.Node
	err   error
}

// load is one Open in flight. Its channels are buffered so the loading
// goroutine never blocks on a session that stopped listening.
type load struct {
	gen      uint64
	path     string
	cancel   context.CancelCauseFunc
	progress chan ifcloader.Progress
	done     chan result
}

// report keeps only the latest progress value
func (l *load) report(p ifcloader.Progress) {
	select {
	case <-l.progress:
	default:
	}
	select {
	case l.progress <- p:
	default:
	}
}

// Session owns the scene and the model shown in it. Open and Poll must be
// called from the same goroutine, the one that also draws the scene.
type Session struct {
	Scene *scene.Scene
	HUD   HUD

	loader Loader
	opts   Options

	state       State
	gen         uint64
	cur         *load
	placeholder *scene.Node
	model       *ifcloader.Model
	edges       *scene.Node
	meshes      int
}

// NewSession creates a session showing the placeholder box
func NewSession(loader Loader, opts Options) *Session {
	if opts.Processor == nil {
		opts.Processor = &recolor.Processor{Strategy: recolor.StyleAware{}, Edges: true}
	}
	s := &Session{
		Scene:       scene.New(),
		loader:      loader,
		opts:        opts,
		placeholder: NewPlaceholder(),
	}
	s.Scene.Add(s.placeholder)
	s.HUD.InfoVisible = true
	return s
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Model returns the model on screen, nil if none
func (s *Session) Model() *ifcloader.Model {
	return s.model
}

// ModelRoot returns the root node of the model on screen, nil if none
func (s *Session) ModelRoot() *scene.Node {
	if s.model == nil {
		return nil
	}
	return s.model.Root
}

// EdgeGroup returns the outline group of the model on screen, nil if none
func (s *Session) EdgeGroup() *scene.Node {
	return s.edges
}

// HasPlaceholder reports whether the demo box is still in the scene
func (s *Session) HasPlaceholder() bool {
	return s.placeholder != nil
}

// Generation returns the number of loads started so far
func (s *Session) Generation() uint64 {
	return s.gen
}

// Busy reports whether a load is in flight
func (s *Session) Busy() bool {
	return s.cur != nil
}

// DismissAlert clears the alert box
func (s *Session) DismissAlert() {
	s.HUD.Alert = ""
}

// Open replaces whatever is shown by the model at path. The previous model
// and placeholder are removed at once; the new model appears in a later Poll.
// A load still in flight is cancelled and its result discarded.
func (s *Session) Open(path string) {
	s.supersede()
	s.clearModel()
	if s.placeholder != nil {
		s.Scene.Remove(s.placeholder)
		s.placeholder = nil
	}

	s.HUD.LoadingVisible = true
	s.HUD.Percent = 0
	s.HUD.Status = "Loading " + filepath.Base(path)
	s.HUD.InfoVisible = false
	s.HUD.StatsVisible = false
	s.HUD.Alert = ""
	s.state = StateLoading

	s.gen++
	ctx, cancel := context.WithCancelCause(context.Background())
	l := &load{
		gen:      s.gen,
		path:     path,
		cancel:   cancel,
		progress: make(chan ifcloader.Progress, 1),
		done:     make(chan result, 1),
	}
	s.cur = l
	slog.Info("opening file", "path", path, "generation", l.gen)
	go s.run(ctx, l)
}

func (s *Session) run(ctx context.Context, l *load) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var model *ifcloader.Model
	defer func() {
		if r := recover(); r != nil {
			slog.Error("load panicked", "path", l.path, "panic", r)
			if model != nil {
				model.Close()
			}
			l.done <- result{err: fmt.Errorf("malformed model: %v", r)}
		}
	}()

	model, err := s.loader.Load(ctx, l.path, l.report)
	if err != nil {
		l.done <- result{err: loadError(ctx, err)}
		return
	}

	ref := recolor.ModelRef{ID: model.ModelID}
	if model.Props != nil {
		ref.Props = model.Props
	}
	res, err := s.opts.Processor.Process(ctx, model.Root, ref)
	if err != nil {
		model.Close()
		l.done <- result{err: loadError(ctx, err)}
		return
	}
	l.done <- result{model: model, edges: res.EdgeGroup}
}

func loadError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil {
		if errors.Is(cause, context.DeadlineExceeded) {
			return fmt.Errorf("load timed out: %w", err)
		}
		return cause
	}
	return err
}

// supersede cancels the load in flight and closes its model whenever it arrives
func (s *Session) supersede() {
	old := s.cur
	if old == nil {
		return
	}
	s.cur = nil
	old.cancel(ErrSuperseded)
	go func() {
		r := <-old.done
		if r.model != nil {
			r.model.Close()
		}
		slog.Debug("discarded superseded load", "path", old.path, "generation", old.gen)
	}()
}

func (s *Session) clearModel() {
	if s.model != nil {
		s.Scene.Remove(s.model.Root)
		s.model.Close()
		s.model = nil
	}
	if s.edges != nil {
		s.Scene.Remove(s.edges)
		s.edges = nil
	}
	s.meshes = 0
}

// Poll applies progress and the result of the load in flight. It reports
// whether the scene or HUD changed.
func (s *Session) Poll() bool {
	l := s.cur
	if l == nil {
		return false
	}
	changed := false

	select {
	case p := <-l.progress:
		s.applyProgress(p)
		changed = true
	default:
	}

	select {
	case r := <-l.done:
		s.cur = nil
		if r.err != nil {
			s.fail(l, r.err)
		} else {
			s.attach(l, r)
		}
		changed = true
	default:
	}
	return changed
}

func (s *Session) applyProgress(p ifcloader.Progress) {
	if p.Stage != "" {
		s.HUD.Status = p.Stage
	}
	if p.Total <= 0 {
		return
	}
	pct := float64(p.Loaded) / float64(p.Total) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return
	}
	s.HUD.Percent = math.Max(0, math.Min(100, pct))
	s.HUD.Status = fmt.Sprintf("%s: %.0f%%", stageOr(p.Stage, "Loading"), s.HUD.Percent)
}

func stageOr(stage, fallback string) string {
	if stage == "" {
		return fallback
	}
	return stage
}

func (s *Session) attach(l *load, r result) {
	s.model = r.model
	s.Scene.Add(r.model.Root)
	if r.edges != nil {
		s.edges = r.edges
		s.Scene.Add(r.edges)
	}
	s.meshes = scene.CountMeshes(r.model.Root)

	if s.opts.Fitter != nil {
		s.opts.Fitter.Fit(scene.BoundingBox(r.model.Root))
	}

	s.HUD.ModelName = r.model.Name
	s.HUD.MeshCount = fmt.Sprintf("%d objects", s.meshes)
	s.HUD.InfoVisible = true
	s.HUD.StatsVisible = true
	s.HUD.LoadingVisible = false
	s.HUD.Percent = 100
	s.state = StateLoaded
	slog.Info("model ready", "name", r.model.Name, "meshes", s.meshes, "generation", l.gen)
}

func (s *Session) fail(l *load, err error) {
	s.HUD.LoadingVisible = false
	s.HUD.Alert = "Error loading IFC: " + err.Error()
	s.state = StateFailed
	slog.Error("failed to load model", "path", l.path, "error", err)
}

// MeshCount returns the number of meshes of the model on screen
func (s *Session) MeshCount() int {
	return s.meshes
}

// Close cancels any load and releases the model
func (s *Session) Close() {
	s.supersede()
	s.clearModel()
}
