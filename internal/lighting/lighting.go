// Package lighting bakes the viewer's light rig into vertex colours.
//
// Meshes are drawn unlit with per-vertex colours, so the whole lighting model
// runs on the CPU once per mesh: hemisphere and ambient fill, a set of
// directional lights with a Blinn-Phong specular term driven by metalness and
// roughness, then tone mapping and output encoding.
package lighting

import (
	"image/color"
	"math"

	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// Ambient light reaching every surface equally
type Ambient struct {
	Color     scene.Color
	Intensity float64
}

// Hemisphere light fading from Sky (normal up) to Ground (normal down)
type Hemisphere struct {
	Sky       scene.Color
	Ground    scene.Color
	Intensity float64
}

// Directional light shining from Position towards the origin
type Directional struct {
	Position   geometry.Vector3
	Color      scene.Color
	Intensity  float64
	CastShadow bool
}

// Direction returns the unit vector from the lit surface towards the light
func (d Directional) Direction() geometry.Vector3 {
	return d.Position.Normalize()
}

// Rig is the complete set of lights of a scene
type Rig struct {
	Ambient     Ambient
	Hemisphere  Hemisphere
	Directional []Directional
}

// DefaultRig returns the lights of the viewer: a strong key light from above,
// two fills and a faint blue bounce from below.
func DefaultRig() Rig {
	white := scene.Hex(0xffffff)
	return Rig{
		Ambient:    Ambient{Color: white, Intensity: 0.6},
		Hemisphere: Hemisphere{Sky: white, Ground: scene.Hex(0x444444), Intensity: 0.7},
		Directional: []Directional{
			{Position: geometry.NewVector3(50, 80, 50), Color: white, Intensity: 1.0, CastShadow: true},
			{Position: geometry.NewVector3(-50, 40, -50), Color: white, Intensity: 0.4},
			{Position: geometry.NewVector3(0, 50, -100), Color: scene.Hex(0xffeedd), Intensity: 0.3},
			{Position: geometry.NewVector3(0, -20, 0), Color: scene.Hex(0x8899ff), Intensity: 0.2},
		},
	}
}

// ShadowLight returns the first shadow-casting directional light
func (r Rig) ShadowLight() (Directional, bool) {
	for _, d := range r.Directional {
		if d.CastShadow {
			return d, true
		}
	}
	return Directional{}, false
}

// ToneMapping selects the curve applied to the lit colour
type ToneMapping int

const (
	ToneMappingNone ToneMapping = iota
	ToneMappingACES
)

// ParseToneMapping maps the config value to a ToneMapping
func ParseToneMapping(s string) ToneMapping {
	if s == "aces" {
		return ToneMappingACES
	}
	return ToneMappingNone
}

// Shader computes final vertex colours
type Shader struct {
	Rig         Rig
	ToneMapping ToneMapping
	Exposure    float64
	SRGB        bool
}

// NewShader returns a shader with the default rig, ACES tone mapping at
// exposure 1.2 and sRGB output.
func NewShader() *Shader {
	return &Shader{
		Rig:         DefaultRig(),
		ToneMapping: ToneMappingACES,
		Exposure:    1.2,
		SRGB:        true,
	}
}

// Radiance returns the linear lit colour of a surface point with the given
// normal seen along view (from the eye towards the point).
func (s *Shader) Radiance(m *scene.Material, normal, view geometry.Vector3) scene.Color {
	base := m.Color
	if m.Kind == scene.MaterialBasic || m.Kind == scene.MaterialLine {
		return base.Add(m.Emissive)
	}

	n := normal.Normalize()
	toEye := view.Mul(-1).Normalize()
	if m.Side == scene.DoubleSide && !toEye.IsZero() && n.Dot(toEye) < 0 {
		n = n.Mul(-1)
	}

	metal := clamp01(m.Metalness)
	rough := math.Max(clamp01(m.Roughness), 0.04)
	diffuseColor := base.Scale(1 - metal)
	specColor := scene.Color{R: 0.04, G: 0.04, B: 0.04}.Scale(1 - metal).Add(base.Scale(metal))
	shininess := 2/(rough*rough*rough*rough) - 2
	if shininess > 2048 {
		shininess = 2048
	}
	specNorm := (shininess + 8) / (8 * math.Pi)

	irradiance := s.Rig.Ambient.Color.Scale(s.Rig.Ambient.Intensity)
	h := s.Rig.Hemisphere
	w := 0.5*n.Y + 0.5
	irradiance = irradiance.Add(h.Ground.Scale(1 - w).Add(h.Sky.Scale(w)).Scale(h.Intensity))

	out := diffuseColor.Mul(irradiance)
	for _, d := range s.Rig.Directional {
		l := d.Direction()
		ndl := n.Dot(l)
		if ndl <= 0 {
			continue
		}
		light := d.Color.Scale(d.Intensity * ndl)
		out = out.Add(diffuseColor.Mul(light))
		if toEye.IsZero() {
			continue
		}
		half := l.Add(toEye).Normalize()
		spec := math.Pow(math.Max(n.Dot(half), 0), shininess) * specNorm
		out = out.Add(specColor.Mul(light).Scale(spec * 0.25))
	}
	return out.Add(m.Emissive)
}

// Shade returns the displayed colour of a surface point, with the
// material opacity as alpha.
func (s *Shader) Shade(m *scene.Material, normal, view geometry.Vector3) color.RGBA {
	return s.Output(s.Radiance(m, normal, view), m.Opacity)
}

// Output tone maps and encodes a linear colour
func (s *Shader) Output(c scene.Color, alpha float64) color.RGBA {
	exposure := s.Exposure
	if exposure <= 0 {
		exposure = 1
	}
	if s.ToneMapping == ToneMappingACES {
		c = scene.Color{R: aces(c.R * exposure), G: aces(c.G * exposure), B: aces(c.B * exposure)}
	}
	if s.SRGB {
		c = scene.Color{R: EncodeSRGB(c.R), G: EncodeSRGB(c.G), B: EncodeSRGB(c.B)}
	}
	return c.RGBA(alpha)
}

// aces is Narkowicz's fit of the ACES filmic curve
func aces(x float64) float64 {
	if x <= 0 {
		return 0
	}
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	return clamp01((x * (a*x + b)) / (x*(c*x+d) + e))
}

// EncodeSRGB applies the sRGB transfer function to a linear value in [0, 1]
func EncodeSRGB(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// DecodeSRGB is the inverse of EncodeSRGB
func DecodeSRGB(v float64) float64 {
	v = clamp01(v)
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
