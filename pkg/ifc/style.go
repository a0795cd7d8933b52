package ifc

import (
	"fmt"

	"github.com/philipparndt/goifc/pkg/step"
)

// maximum nesting of mapped representations followed before giving up
const maxMappingDepth = 8

// RGB is an IFC colour with components in [0,1]
type RGB struct {
	R, G, B float64
}

// SurfaceStyle is the resolved rendering of an element
type SurfaceStyle struct {
	StyleID         int // express ID of the IfcSurfaceStyle
	Name            string
	Colour          RGB
	HasColour       bool
	Transparency    float64
	HasTransparency bool
}

// Opacity returns 1 - transparency, or 1 when no transparency is set
func (s *SurfaceStyle) Opacity() float64 {
	if !s.HasTransparency {
		return 1
	}
	return 1 - s.Transparency
}

// SurfaceStyle finds the surface style applied to an element. Styled items
// that target the element directly are tried first, then those on the items
// of its representations (following mapped items).
func (m *Manager) SurfaceStyle(modelID, expressID int) (*SurfaceStyle, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	if _, ok := md.file.Record(expressID); !ok {
		return nil, fmt.Errorf("element #%d in model %d: %w", expressID, modelID, ErrNotFound)
	}

	items := append([]int{expressID}, md.representationItems(expressID)...)
	for _, item := range items {
		for _, styled := range md.styledBy[item] {
			r, _ := md.file.Record(styled)
			if style := md.resolveStyles(r.Arg(1), 0); style != nil {
				return style, nil
			}
		}
	}
	return nil, fmt.Errorf("style of #%d: %w", expressID, ErrNotFound)
}

// representationItems returns the geometric items of every shape representation of a product
func (md *model) representationItems(productID int) []int {
	r, _ := md.file.Record(productID)
	shapeRef, ok := r.Arg(productRepresentation).AsRef()
	if !ok {
		return nil
	}
	shape, ok := md.file.Record(shapeRef)
	if !ok || shape.Type != "IFCPRODUCTDEFINITIONSHAPE" {
		return nil
	}

	var out []int
	for _, repID := range shape.Arg(2).AsRefs() {
		out = md.collectItems(repID, out, 0)
	}
	return out
}

func (md *model) collectItems(repID int, out []int, depth int) []int {
	if depth > maxMappingDepth {
		return out
	}
	rep, ok := md.file.Record(repID)
	if !ok {
		return out
	}
	for _, itemID := range rep.Arg(3).AsRefs() {
		out = append(out, itemID)
		item, ok := md.file.Record(itemID)
		if !ok || item.Type != "IFCMAPPEDITEM" {
			continue
		}
		mapRef, ok := item.Arg(0).AsRef()
		if !ok {
			continue
		}
		repMap, ok := md.file.Record(mapRef)
		if !ok {
			continue
		}
		if mapped, ok := repMap.Arg(1).AsRef(); ok {
			out = md.collectItems(mapped, out, depth+1)
		}
	}
	return out
}

// resolveStyles walks presentation style assignments and surface styles down
// to the first rendering or shading that carries a colour or a transparency
func (md *model) resolveStyles(styles step.Value, depth int) *SurfaceStyle {
	if depth > maxMappingDepth {
		return nil
	}
	for _, ref := range styles.AsRefs() {
		r, ok := md.file.Record(ref)
		if !ok {
			continue
		}
		switch r.Type {
		case "IFCPRESENTATIONSTYLEASSIGNMENT":
			if s := md.resolveStyles(r.Arg(0), depth+1); s != nil {
				return s
			}
		case "IFCSURFACESTYLE":
			if s := md.surfaceStyle(r); s != nil {
				return s
			}
		}
	}
	return nil
}

// surfaceStyle returns the first rendering of r with a colour, or else the
// first one that at least carries a transparency
func (md *model) surfaceStyle(r *step.Record) *SurfaceStyle {
	var translucent *SurfaceStyle
	for _, ref := range r.Arg(2).AsRefs() {
		elem, ok := md.file.Record(ref)
		if !ok {
			continue
		}
		if elem.Type != "IFCSURFACESTYLERENDERING" && elem.Type != "IFCSURFACESTYLESHADING" {
			continue
		}
		style := &SurfaceStyle{StyleID: r.ID, Name: mustString(r.Arg(0))}
		if colourRef, ok := elem.Arg(0).AsRef(); ok {
			style.Colour, style.HasColour = md.colour(colourRef)
		}
		if t, ok := elem.Arg(1).AsFloat(); ok {
			style.Transparency = clamp01(t)
			style.HasTransparency = true
		}
		if style.HasColour {
			return style
		}
		if style.HasTransparency && translucent == nil {
			translucent = style
		}
	}
	return translucent
}

func (md *model) colour(id int) (RGB, bool) {
	r, ok := md.file.Record(id)
	if !ok || r.Type != "IFCCOLOURRGB" {
		return RGB{}, false
	}
	red, ok1 := r.Arg(1).AsFloat()
	green, ok2 := r.Arg(2).AsFloat()
	blue, ok3 := r.Arg(3).AsFloat()
	if !ok1 || !ok2 || !ok3 {
		return RGB{}, false
	}
	return RGB{R: clamp01(red), G: clamp01(green), B: clamp01(blue)}, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
