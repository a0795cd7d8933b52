package recolor

import (
	"strings"

	"github.com/philipparndt/goifc/internal/scene"
)

// TypeDefault is the fallback appearance of an IFC class
type TypeDefault struct {
	Color       scene.Color
	Metalness   float64
	Roughness   float64
	Transparent bool
	Opacity     float64
}

// DefaultKey is the TypeDefaults entry used for unknown classes
const DefaultKey = "DEFAULT"

// TypeDefaults maps upper-case IFC class names to their fallback appearance
var TypeDefaults = map[string]TypeDefault{
	"IFCWALL":                 {Color: scene.Hex(0xe0e0e0), Metalness: 0.0, Roughness: 0.8, Opacity: 1},
	"IFCWALLSTANDARDCASE":     {Color: scene.Hex(0xd4d4d4), Metalness: 0.0, Roughness: 0.8, Opacity: 1},
	"IFCSLAB":                 {Color: scene.Hex(0xcccccc), Metalness: 0.1, Roughness: 0.6, Opacity: 1},
	"IFCSLABSTANDARDCASE":     {Color: scene.Hex(0xc0c0c0), Metalness: 0.1, Roughness: 0.6, Opacity: 1},
	"IFCDOOR":                 {Color: scene.Hex(0x8b4513), Metalness: 0.2, Roughness: 0.7, Opacity: 1},
	"IFCWINDOW":               {Color: scene.Hex(0x87ceeb), Metalness: 0.3, Roughness: 0.2, Transparent: true, Opacity: 0.5},
	"IFCFURNISHINGELEMENT":    {Color: scene.Hex(0xa0522d), Metalness: 0.2, Roughness: 0.6, Opacity: 1},
	"IFCFURNITURE":            {Color: scene.Hex(0xa0522d), Metalness: 0.2, Roughness: 0.6, Opacity: 1},
	"IFCBEAM":                 {Color: scene.Hex(0x808080), Metalness: 0.3, Roughness: 0.5, Opacity: 1},
	"IFCCOLUMN":               {Color: scene.Hex(0x696969), Metalness: 0.3, Roughness: 0.5, Opacity: 1},
	"IFCROOF":                 {Color: scene.Hex(0x8b0000), Metalness: 0.1, Roughness: 0.8, Opacity: 1},
	"IFCSTAIR":                {Color: scene.Hex(0xb8b8b8), Metalness: 0.2, Roughness: 0.7, Opacity: 1},
	"IFCRAILING":              {Color: scene.Hex(0x4682b4), Metalness: 0.6, Roughness: 0.3, Opacity: 1},
	"IFCBUILDINGELEMENTPROXY": {Color: scene.Hex(0xdcdcdc), Metalness: 0.1, Roughness: 0.7, Opacity: 1},
	DefaultKey:                {Color: scene.Hex(0xcccccc), Metalness: 0.1, Roughness: 0.7, Opacity: 1},
}

// LookupType returns the defaults for an IFC class, falling back to DEFAULT
func LookupType(typeName string) TypeDefault {
	if d, ok := TypeDefaults[strings.ToUpper(typeName)]; ok {
		return d
	}
	return TypeDefaults[DefaultKey]
}
