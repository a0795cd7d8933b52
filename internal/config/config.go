// Package config loads the viewer settings from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/philipparndt/goifc/internal/lighting"
	"github.com/philipparndt/goifc/pkg/ifcconvert"
)

// DefaultFile is where the config is looked up when no path is given
const DefaultFile = "~/.config/goifc/config.toml"

// Duration is a time.Duration written as a string such as "10m" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete viewer configuration
type Config struct {
	Viewer   Viewer   `toml:"viewer"`
	Renderer Renderer `toml:"renderer"`
	Controls Controls `toml:"controls"`
	Loader   Loader   `toml:"loader"`
}

// Viewer holds scene and post-processing settings
type Viewer struct {
	Strategy   string  `toml:"strategy"` // style, forced or passthrough
	Edges      bool    `toml:"edges"`
	Watch      bool    `toml:"watch"`
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	Background string  `toml:"background"`
	FOV        float64 `toml:"fov"`
	Near       float64 `toml:"near"`
	Far        float64 `toml:"far"`
	Grid       bool    `toml:"grid"`
	Axes       bool    `toml:"axes"`
}

// Renderer holds the options handed to the rendering engine
type Renderer struct {
	Antialias        bool    `toml:"antialias"`
	Alpha            bool    `toml:"alpha"`
	PowerPreference  string  `toml:"power_preference"`
	PixelRatioCap    float64 `toml:"pixel_ratio_cap"`
	Shadows          bool    `toml:"shadows"`
	ShadowType       string  `toml:"shadow_type"`
	ToneMapping      string  `toml:"tone_mapping"` // aces or none
	Exposure         float64 `toml:"exposure"`
	OutputColorSpace string  `toml:"output_color_space"` // srgb or linear
	TargetFPS        int     `toml:"target_fps"`
}

// Controls configure the orbit controller
type Controls struct {
	EnableDamping      bool    `toml:"enable_damping"`
	DampingFactor      float64 `toml:"damping_factor"`
	MinDistance        float64 `toml:"min_distance"`
	MaxDistance        float64 `toml:"max_distance"`
	EnablePan          bool    `toml:"enable_pan"`
	PanSpeed           float64 `toml:"pan_speed"`
	ScreenSpacePanning bool    `toml:"screen_space_panning"`
	RotateSpeed        float64 `toml:"rotate_speed"`
	ZoomSpeed          float64 `toml:"zoom_speed"`
}

// Loader configures the IfcConvert tessellator
type Loader struct {
	Converter       string   `toml:"converter"`
	MinVersion      string   `toml:"min_version"`
	Threads         int      `toml:"threads"`
	DisableBooleans bool     `toml:"disable_booleans"`
	Naming          string   `toml:"naming"` // guid or stepid
	ExtraArgs       string   `toml:"extra_args"`
	Timeout         Duration `toml:"timeout"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Viewer: Viewer{
			Strategy:   "style",
			Edges:      true,
			Width:      1280,
			Height:     800,
			Background: "#1a1f2e",
			FOV:        60,
			Near:       0.001,
			Far:        5000,
			Grid:       true,
			Axes:       true,
		},
		Renderer: Renderer{
			Antialias:        true,
			PowerPreference:  "high-performance",
			PixelRatioCap:    2,
			Shadows:          true,
			ShadowType:       "planar",
			ToneMapping:      "aces",
			Exposure:         1.2,
			OutputColorSpace: "srgb",
			TargetFPS:        60,
		},
		Controls: Controls{
			EnableDamping:      true,
			DampingFactor:      0.05,
			MinDistance:        0.01,
			MaxDistance:        2000,
			EnablePan:          true,
			PanSpeed:           1.0,
			ScreenSpacePanning: true,
			RotateSpeed:        1.0,
			ZoomSpeed:          1.0,
		},
		Loader: Loader{
			Converter: "IfcConvert",
			Naming:    "guid",
			Timeout:   Duration{10 * time.Minute},
		},
	}
}

// ConverterOptions maps the [loader] section onto IfcConvert options
func (l Loader) ConverterOptions() ifcconvert.Options {
	return ifcconvert.Options{
		Binary:          l.Converter,
		MinVersion:      l.MinVersion,
		Threads:         l.Threads,
		DisableBooleans: l.DisableBooleans,
		Naming:          ifcconvert.Naming(l.Naming),
		ExtraArgs:       l.ExtraArgs,
	}
}

// Shader builds the lighting shader for the [renderer] section
func (r Renderer) Shader() *lighting.Shader {
	return &lighting.Shader{
		Rig:         lighting.DefaultRig(),
		ToneMapping: lighting.ParseToneMapping(r.ToneMapping),
		Exposure:    r.Exposure,
		SRGB:        r.OutputColorSpace == "srgb",
	}
}

// DefaultPath returns DefaultFile with the home directory expanded
func DefaultPath() (string, error) {
	return homedir.Expand(DefaultFile)
}

// Load reads the config at path on top of the defaults. An empty path means
// DefaultPath, which is allowed to be missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, fmt.Errorf("failed to resolve config path: %w", err)
		}
		path = p
	} else {
		p, err := homedir.Expand(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to resolve config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Default(), fmt.Errorf("%s: %s", path, strict.String())
		}
		return Default(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the directory if needed
func (c *Config) Save(path string) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

// Marshal encodes cfg as TOML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func oneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %s", field, v, strings.Join(allowed, ", "))
}

// Validate checks enumerations and ranges
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs,
		oneOf("viewer.strategy", c.Viewer.Strategy, "style", "forced", "passthrough"),
		oneOf("renderer.tone_mapping", c.Renderer.ToneMapping, "aces", "none"),
		oneOf("renderer.output_color_space", c.Renderer.OutputColorSpace, "srgb", "linear"),
		oneOf("renderer.shadow_type", c.Renderer.ShadowType, "planar"),
		oneOf("loader.naming", c.Loader.Naming, "guid", "stepid"),
	)
	if _, err := ParseHex(c.Viewer.Background); err != nil {
		errs = append(errs, fmt.Errorf("viewer.background: %w", err))
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		errs = append(errs, fmt.Errorf("viewer.fov: %v is outside (0, 180)", c.Viewer.FOV))
	}
	if c.Viewer.Near <= 0 || c.Viewer.Far <= c.Viewer.Near {
		errs = append(errs, fmt.Errorf("viewer.near/far: need 0 < near < far, got %v/%v", c.Viewer.Near, c.Viewer.Far))
	}
	if c.Controls.MinDistance < 0 || c.Controls.MaxDistance < c.Controls.MinDistance {
		errs = append(errs, fmt.Errorf("controls: need 0 <= min_distance <= max_distance"))
	}
	if c.Controls.DampingFactor <= 0 || c.Controls.DampingFactor >= 1 {
		errs = append(errs, fmt.Errorf("controls.damping_factor: %v is outside (0, 1)", c.Controls.DampingFactor))
	}
	if c.Renderer.Exposure <= 0 {
		errs = append(errs, fmt.Errorf("renderer.exposure must be positive"))
	}
	if c.Loader.Threads < 0 {
		errs = append(errs, fmt.Errorf("loader.threads must not be negative"))
	}
	return errors.Join(errs...)
}

// ParseHex parses "#rrggbb" or "0xrrggbb"
func ParseHex(s string) (uint32, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x")
	if len(h) != 6 {
		return 0, fmt.Errorf("colour %q must have six hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("colour %q: %w", s, err)
	}
	return uint32(v), nil
}
