package scene

import (
	"fmt"
	"image/color"
	"math"
)

// Color is an RGB triple with components in [0,1]
type Color struct {
	R, G, B float64
}

// Hex converts a 0xRRGGBB value to a Color
func Hex(h uint32) Color {
	return Color{
		R: float64((h>>16)&0xff) / 255,
		G: float64((h>>8)&0xff) / 255,
		B: float64(h&0xff) / 255,
	}
}

// Hex returns the 0xRRGGBB value of the color
func (c Color) Hex() uint32 {
	return uint32(to8(c.R))<<16 | uint32(to8(c.G))<<8 | uint32(to8(c.B))
}

// RGBA converts the color to 8-bit with the given alpha
func (c Color) RGBA(alpha float64) color.RGBA {
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(alpha)}
}

// Scale multiplies every component by f
func (c Color) Scale(f float64) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}
}

// Mul multiplies two colors component-wise
func (c Color) Mul(o Color) Color {
	return Color{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B}
}

// Add adds two colors component-wise
func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B}
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Hex())
}

func to8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// MaterialKind mirrors the shading models a loader can hand out
type MaterialKind int

const (
	MaterialBasic MaterialKind = iota
	MaterialLambert
	MaterialPhong
	MaterialStandard
	MaterialLine
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialBasic:
		return "basic"
	case MaterialLambert:
		return "lambert"
	case MaterialPhong:
		return "phong"
	case MaterialStandard:
		return "standard"
	case MaterialLine:
		return "line"
	}
	return "unknown"
}

// Side selects which faces are drawn
type Side int

const (
	FrontSide Side = iota
	DoubleSide
)

// DefaultPBR is the metalness and roughness a fresh standard material starts with.
// Recolor strategies treat it as "not chosen yet".
const DefaultPBR = 0.5

// Material describes how a mesh or line is shaded
type Material struct {
	Kind            MaterialKind
	Name            string
	Color           Color
	HasColor        bool
	Opacity         float64
	Transparent     bool
	Metalness       float64
	Roughness       float64
	Emissive        Color
	Map             string // texture reference, empty when untextured
	Side            Side
	FlatShading     bool
	EnvMapIntensity float64
}

// NewStandardMaterial returns a white, opaque, front-sided standard material
func NewStandardMaterial() *Material {
	return &Material{
		Kind:            MaterialStandard,
		Color:           Color{R: 1, G: 1, B: 1},
		HasColor:        true,
		Opacity:         1,
		Metalness:       DefaultPBR,
		Roughness:       DefaultPBR,
		EnvMapIntensity: 1,
	}
}

// NewLineMaterial returns a line material of the given color and opacity
func NewLineMaterial(c Color, opacity float64) *Material {
	m := &Material{
		Kind:     MaterialLine,
		Color:    c,
		HasColor: true,
		Opacity:  opacity,
	}
	m.Normalize()
	return m
}

// Clone returns a shallow copy
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// SetColor assigns the color and marks it present
func (m *Material) SetColor(c Color) {
	m.Color = c
	m.HasColor = true
}

// Normalize clamps opacity to [0,1] and keeps the transparency flag consistent with it
func (m *Material) Normalize() {
	if math.IsNaN(m.Opacity) || m.Opacity > 1 {
		m.Opacity = 1
	}
	if m.Opacity < 0 {
		m.Opacity = 0
	}
	if m.Opacity < 1 {
		m.Transparent = true
	}
}

// IsTransparent reports whether the material must be drawn blended
func (m *Material) IsTransparent() bool {
	return m.Transparent && m.Opacity < 1
}
