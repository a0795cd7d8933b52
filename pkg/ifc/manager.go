// Package ifc answers property queries against indexed IFC models.
// Models are addressed by the numeric ID handed out when they are opened,
// elements by their express ID (the #N of the STEP record).
package ifc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/philipparndt/goifc/pkg/step"
)

var (
	// ErrNotFound is returned when a model, element or style does not exist
	ErrNotFound = errors.New("not found")
	// ErrNotIFC is returned when a STEP file does not declare an IFC schema
	ErrNotIFC = errors.New("not an IFC model")
)

type model struct {
	name     string
	file     *step.File
	guids    map[string]int
	styledBy map[int][]int // representation item -> IfcStyledItem ids
	typeOf   map[int][]int // element -> type object ids
}

// Manager holds every open model. It is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	models map[int]*model
	nextID int
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{models: make(map[int]*model)}
}

// OpenFile indexes the IFC file at path and returns its model ID
func (m *Manager) OpenFile(ctx context.Context, path string, progress step.ProgressFunc) (int, error) {
	f, err := step.ParseFile(ctx, path, progress)
	if err != nil {
		return 0, err
	}
	return m.add(path, f)
}

// Open indexes an IFC model read from r
func (m *Manager) Open(ctx context.Context, name string, r io.Reader, size int64, progress step.ProgressFunc) (int, error) {
	f, err := step.Parse(ctx, r, size, progress)
	if err != nil {
		return 0, err
	}
	return m.add(name, f)
}

func (m *Manager) add(name string, f *step.File) (int, error) {
	if !isIFCSchema(f.Schema) {
		return 0, fmt.Errorf("%w: schema %v", ErrNotIFC, f.Schema)
	}
	if f.Malformed > 0 {
		slog.Warn("skipped malformed records", "model", name, "count", f.Malformed)
	}

	md := &model{
		name:     name,
		file:     f,
		guids:    make(map[string]int),
		styledBy: make(map[int][]int),
		typeOf:   make(map[int][]int),
	}
	md.buildIndexes()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.models[m.nextID] = md
	slog.Debug("opened model", "id", m.nextID, "name", name, "records", f.Len())
	return m.nextID, nil
}

func isIFCSchema(schema []string) bool {
	// files written without a FILE_SCHEMA are accepted as-is
	if len(schema) == 0 {
		return true
	}
	for _, s := range schema {
		if strings.HasPrefix(strings.ToUpper(s), "IFC") {
			return true
		}
	}
	return false
}

func (md *model) buildIndexes() {
	md.file.Each(func(r *step.Record) {
		if guid, ok := r.Arg(0).AsString(); ok && len(guid) == 22 && r.Arg(0).Kind == step.String {
			md.guids[guid] = r.ID
		}
	})
	for _, id := range md.file.OfType("IFCSTYLEDITEM") {
		r, _ := md.file.Record(id)
		if item, ok := r.Arg(0).AsRef(); ok {
			md.styledBy[item] = append(md.styledBy[item], id)
		}
	}
	for _, id := range md.file.OfType("IFCRELDEFINESBYTYPE") {
		r, _ := md.file.Record(id)
		typeID, ok := r.Arg(5).AsRef()
		if !ok {
			continue
		}
		for _, obj := range r.Arg(4).AsRefs() {
			md.typeOf[obj] = append(md.typeOf[obj], typeID)
		}
	}
}

// CloseModel releases a model. Closing an unknown ID is a no-op.
func (m *Manager) CloseModel(modelID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[modelID]; ok {
		delete(m.models, modelID)
		slog.Debug("closed model", "id", modelID)
	}
}

// IsOpen reports whether modelID refers to an open model
func (m *Manager) IsOpen(modelID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.models[modelID]
	return ok
}

func (m *Manager) model(modelID int) (*model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.models[modelID]
	if !ok {
		return nil, fmt.Errorf("model %d: %w", modelID, ErrNotFound)
	}
	return md, nil
}

// Schema returns the FILE_SCHEMA identifiers of a model
func (m *Manager) Schema(modelID int) ([]string, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	return md.file.Schema, nil
}

// AllItemsOfType returns the express IDs of every instance of the IFC class
func (m *Manager) AllItemsOfType(modelID int, typeName string) ([]int, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	return append([]int(nil), md.file.OfType(typeName)...), nil
}

// ExpressIDForGUID maps an IFC GlobalId to its express ID
func (m *Manager) ExpressIDForGUID(modelID int, guid string) (int, error) {
	md, err := m.model(modelID)
	if err != nil {
		return 0, err
	}
	id, ok := md.guids[guid]
	if !ok {
		return 0, fmt.Errorf("guid %s: %w", guid, ErrNotFound)
	}
	return id, nil
}

// ProductCounts returns, per IFC class, the number of elements that carry a product shape
func (m *Manager) ProductCounts(modelID int) (map[string]int, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	md.file.Each(func(r *step.Record) {
		if md.isProduct(r) {
			out[r.Type]++
		}
	})
	return out, nil
}

// Products returns the express IDs of every element that carries a product shape, ascending
func (m *Manager) Products(modelID int) ([]int, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	var ids []int
	md.file.Each(func(r *step.Record) {
		if md.isProduct(r) {
			ids = append(ids, r.ID)
		}
	})
	sort.Ints(ids)
	return ids, nil
}

// StyledItemCount returns the number of IfcStyledItem records
func (m *Manager) StyledItemCount(modelID int) (int, error) {
	md, err := m.model(modelID)
	if err != nil {
		return 0, err
	}
	return len(md.file.OfType("IFCSTYLEDITEM")), nil
}

func (md *model) isProduct(r *step.Record) bool {
	if _, ok := md.guids[mustString(r.Arg(0))]; !ok {
		return false
	}
	ref, ok := r.Arg(productRepresentation).AsRef()
	if !ok {
		return false
	}
	shape, ok := md.file.Record(ref)
	return ok && shape.Type == "IFCPRODUCTDEFINITIONSHAPE"
}

func mustString(v step.Value) string {
	s, _ := v.AsString()
	return s
}
