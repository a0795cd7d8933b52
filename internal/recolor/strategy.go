// Package recolor assigns final materials to a loaded model.
package recolor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jinzhu/copier"
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/ifc"
)

// neutral grey for materials that carry no colour
const passthroughGrey = 0x808080

// StyleSource answers the per-element queries the style strategy needs
type StyleSource interface {
	ItemProperties(modelID, expressID int) (*ifc.Properties, error)
	SurfaceStyle(modelID, expressID int) (*ifc.SurfaceStyle, error)
}

// ModelRef identifies the model whose elements are recolored
type ModelRef struct {
	ID    int
	Props StyleSource // nil disables per-element lookups
}

// Strategy recolors every mesh below a root
type Strategy interface {
	Name() string
	Apply(ctx context.Context, root *scene.Node, model ModelRef) error
}

// Strategy names accepted by ByName
const (
	StyleName       = "style"
	ForcedName      = "forced"
	PassthroughName = "passthrough"
)

// ByName returns the strategy registered under name
func ByName(name string) (Strategy, error) {
	switch name {
	case StyleName, "":
		return StyleAware{}, nil
	case ForcedName:
		return Forced{}, nil
	case PassthroughName:
		return Passthrough{}, nil
	}
	return nil, fmt.Errorf("unknown recolor strategy %q (want %s, %s or %s)", name, StyleName, ForcedName, PassthroughName)
}

// upgradeFields are carried over when a non-standard material is replaced
type upgradeFields struct {
	Color       scene.Color
	HasColor    bool
	Map         string
	Transparent bool
	Opacity     float64
}

// forcedFields are the only properties the forced strategy keeps
type forcedFields struct {
	Color       scene.Color
	HasColor    bool
	Opacity     float64
	Transparent bool
	Emissive    scene.Color
	Map         string
}

func freshStandard() *scene.Material {
	m := scene.NewStandardMaterial()
	m.Side = scene.DoubleSide
	m.FlatShading = false
	return m
}

// carry copies the fields of proto (a projection struct) from src into dst
func carry(dst, src *scene.Material, proto any) *scene.Material {
	if err := copier.Copy(proto, src); err != nil {
		slog.Debug("material copy failed", "error", err)
		return dst
	}
	if err := copier.Copy(dst, proto); err != nil {
		slog.Debug("material copy failed", "error", err)
	}
	return dst
}

// upgrade returns m unchanged if it is already standard, else a double-sided
// standard replacement keeping colour, map and transparency
func upgrade(m *scene.Material) *scene.Material {
	if m == nil {
		return freshStandard()
	}
	if m.Kind == scene.MaterialStandard {
		return m
	}
	up := carry(freshStandard(), m, &upgradeFields{})
	up.Name = m.Name
	up.EnvMapIntensity = 0.5
	return up
}

// ensureMaterial gives a mesh without materials one uncoloured standard
// material so every strategy colours it like any other mesh
func ensureMaterial(n *scene.Node) {
	if len(n.Mesh.Materials) == 0 {
		m := freshStandard()
		m.HasColor = false
		n.Mesh.Materials = []*scene.Material{m}
	}
}

func finishMesh(n *scene.Node) {
	n.Mesh.CastShadow = true
	n.Mesh.ReceiveShadow = true
	if n.Mesh.Geometry != nil {
		n.Mesh.Geometry.ComputeVertexNormals()
	}
	for _, m := range n.Mesh.Materials {
		m.Normalize()
	}
}

// StyleAware colors elements from their IFC surface style and tunes
// metalness and roughness per IFC class
type StyleAware struct{}

func (StyleAware) Name() string { return StyleName }

func (s StyleAware) Apply(ctx context.Context, root *scene.Node, model ModelRef) error {
	styled := 0
	meshes := 0
	err := scene.Walk(ctx, root, scene.MeshFunc(func(_ context.Context, n *scene.Node) error {
		meshes++
		typeName, style := lookup(model, n.Mesh.ExpressID)
		if style != nil {
			styled++
		}
		defaults := LookupType(typeName)
		ensureMaterial(n)

		for i, m := range n.Mesh.Materials {
			m = upgrade(m)
			if style != nil && style.HasColour {
				m.SetColor(scene.Color{R: style.Colour.R, G: style.Colour.G, B: style.Colour.B})
			} else if !m.HasColor {
				m.SetColor(defaults.Color)
			}
			if style != nil && style.Transparency > 0 {
				m.Transparent = true
				m.Opacity = 1 - style.Transparency
			}
			if m.Metalness == scene.DefaultPBR {
				m.Metalness = defaults.Metalness
			}
			if m.Roughness == scene.DefaultPBR {
				m.Roughness = defaults.Roughness
			}
			n.Mesh.Materials[i] = m
		}
		finishMesh(n)
		return nil
	}))
	if err != nil {
		return err
	}
	slog.Debug("applied surface styles", "meshes", meshes, "styled", styled)
	return nil
}

// lookup returns the IFC class and surface style of an element. Failures
// are logged and reported as "no data".
func lookup(model ModelRef, expressID int) (string, *ifc.SurfaceStyle) {
	if expressID == 0 || model.Props == nil {
		return DefaultKey, nil
	}

	typeName := DefaultKey
	props, err := model.Props.ItemProperties(model.ID, expressID)
	if err != nil {
		slog.Debug("no properties", "expressID", expressID, "error", err)
	} else {
		typeName = props.Type
	}

	style, err := model.Props.SurfaceStyle(model.ID, expressID)
	if err != nil {
		if !errors.Is(err, ifc.ErrNotFound) {
			slog.Debug("style lookup failed", "expressID", expressID, "error", err)
		}
		return typeName, nil
	}
	return typeName, style
}

// Forced replaces every material with a fresh standard material keeping
// colour, opacity, transparency, emissive and texture
type Forced struct{}

func (Forced) Name() string { return ForcedName }

func (Forced) Apply(ctx context.Context, root *scene.Node, _ ModelRef) error {
	return scene.Walk(ctx, root, scene.MeshFunc(func(_ context.Context, n *scene.Node) error {
		ensureMaterial(n)
		for i, m := range n.Mesh.Materials {
			fresh := freshStandard()
			if m != nil {
				fresh = carry(fresh, m, &forcedFields{})
				fresh.Name = m.Name
			}
			n.Mesh.Materials[i] = fresh
		}
		finishMesh(n)
		return nil
	}))
}

// Passthrough keeps the loader's colours and only sets a uniform finish
type Passthrough struct{}

func (Passthrough) Name() string { return PassthroughName }

func (Passthrough) Apply(ctx context.Context, root *scene.Node, _ ModelRef) error {
	return scene.Walk(ctx, root, scene.MeshFunc(func(_ context.Context, n *scene.Node) error {
		ensureMaterial(n)
		for i, m := range n.Mesh.Materials {
			m = upgrade(m)
			if !m.HasColor {
				m.SetColor(scene.Hex(passthroughGrey))
			}
			m.Metalness = 0.1
			m.Roughness = 0.7
			n.Mesh.Materials[i] = m
		}
		finishMesh(n)
		return nil
	}))
}
