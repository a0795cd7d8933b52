package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/philipparndt/goifc/internal/lighting"
	"github.com/philipparndt/goifc/pkg/ifcconvert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "style", cfg.Viewer.Strategy)
	assert.Equal(t, 0.05, cfg.Controls.DampingFactor)
	assert.Equal(t, 10*time.Minute, cfg.Loader.Timeout.Duration)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[viewer]
strategy = "forced"
edges = false

[loader]
threads = 4
extra_args = "--center-model"
timeout = "90s"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "forced", cfg.Viewer.Strategy)
	assert.False(t, cfg.Viewer.Edges)
	assert.Equal(t, 4, cfg.Loader.Threads)
	assert.Equal(t, "--center-model", cfg.Loader.ExtraArgs)
	assert.Equal(t, 90*time.Second, cfg.Loader.Timeout.Duration)
	assert.Equal(t, 60.0, cfg.Viewer.FOV, "untouched keys keep defaults")
}

func TestLoadRejectsUnknownKeysAndBadValues(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[viewer]\ncolour = \"red\"\n"), 0o644))
	cfg, err := Load(unknown)
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[viewer]\nstrategy = \"rainbow\"\n"), 0o644))
	cfg, err = Load(invalid)
	assert.ErrorContains(t, err, "viewer.strategy")
	assert.Equal(t, "style", cfg.Viewer.Strategy)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Renderer.ToneMapping = "none"
	cfg.Loader.Timeout = Duration{time.Minute}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseHex(t *testing.T) {
	v, err := ParseHex("#1a1f2e")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1a1f2e), v)

	v, err = ParseHex("0x4488FF")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4488ff), v)

	_, err = ParseHex("#fff")
	assert.Error(t, err)
	_, err = ParseHex("#gggggg")
	assert.Error(t, err)
}

func TestSectionsMapOntoCollaborators(t *testing.T) {
	cfg := Default()
	cfg.Loader.Threads = 8
	cfg.Loader.Naming = "stepid"
	cfg.Loader.ExtraArgs = "--center-model"

	opts := cfg.Loader.ConverterOptions()
	assert.Equal(t, "IfcConvert", opts.Binary)
	assert.Equal(t, 8, opts.Threads)
	assert.Equal(t, ifcconvert.NamingStepID, opts.Naming)
	assert.Equal(t, "--center-model", opts.ExtraArgs)

	shader := cfg.Renderer.Shader()
	assert.Equal(t, lighting.ToneMappingACES, shader.ToneMapping)
	assert.Equal(t, 1.2, shader.Exposure)
	assert.True(t, shader.SRGB)

	cfg.Renderer.ToneMapping = "none"
	cfg.Renderer.OutputColorSpace = "linear"
	shader = cfg.Renderer.Shader()
	assert.Equal(t, lighting.ToneMappingNone, shader.ToneMapping)
	assert.False(t, shader.SRGB)
}
