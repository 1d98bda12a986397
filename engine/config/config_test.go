package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, algorithm.Forward, cfg.Kind())
}

func TestDecode(t *testing.T) {
	cfg := Default()
	err := cfg.Decode([]byte(`
[render]
algorithm = "dais"
hash_capacity = 4096
samples = 4

[scene]
spheres_per_row = 10
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, algorithm.DeferredAttributeInterpolation, cfg.Kind())
	assert.Equal(t, uint32(4096), cfg.Render.HashCapacity)
	assert.Equal(t, 4, cfg.Render.Samples)
	assert.Equal(t, 10, cfg.Scene.SpheresPerRow)
	assert.Equal(t, scene.DefaultSlices, cfg.Scene.Slices)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Decode([]byte("[render]\nalgoritm = \"dais\"\n")))
	assert.Error(t, cfg.Decode([]byte("[render\n")))
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Render.Algorithm = "tiled"
	data, err := cfg.Encode()
	require.NoError(t, err)

	got := Config{}
	require.NoError(t, got.Decode(data))
	assert.Equal(t, cfg, got)
}

func TestValidateClamps(t *testing.T) {
	cfg := Default()
	cfg.Scene.SpheresPerRow = 500
	cfg.Scene.Slices = 1
	cfg.Scene.Lights = 0
	cfg.Scene.MinLightRange = 3
	cfg.Scene.MaxLightRange = 2
	cfg.Window.Width = -4
	require.NoError(t, cfg.Validate())

	assert.Equal(t, scene.MaxSpheresPerRow, cfg.Scene.SpheresPerRow)
	assert.Equal(t, scene.MinSlices, cfg.Scene.Slices)
	assert.Equal(t, 1, cfg.Scene.Lights)
	assert.Equal(t, float32(3), cfg.Scene.MaxLightRange)
	assert.Equal(t, 1, cfg.Window.Width)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"algorithm", func(c *Config) { c.Render.Algorithm = "raster" }, algorithm.ErrUnknownKind},
		{"samples", func(c *Config) { c.Render.Samples = 16 }, algorithm.ErrInvalidSamples},
		{"hash not power of two", func(c *Config) { c.Render.HashCapacity = 3000 }, hashtable.ErrNotPowerOfTwo},
		{"hash too large", func(c *Config) { c.Render.HashCapacity = 1 << 20 }, hashtable.ErrCapacityRange},
		{"shader dir", func(c *Config) { c.Render.ShaderDir = "" }, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	cfg := Default()
	cfg.Debug.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestLoadLayersFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[window]
width = 800

[render]
algorithm = "deferred"
force_sync = true

[scene]
lights = 200
`), 0o644))

	cfg, err := Load("bench", []string{"--config", path, "-a", "tiled", "--lights=300", "--msaa", "8"})
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, algorithm.TiledDeferred, cfg.Kind())
	assert.True(t, cfg.Render.ForceSync)
	assert.Equal(t, 300, cfg.Scene.Lights)
	assert.Equal(t, 8, cfg.Render.Samples)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("bench", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load("bench", []string{"--config", "missing.toml"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load("bench", []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = Load("bench", []string{"--hash-size", "1000"})
	assert.ErrorIs(t, err, hashtable.ErrNotPowerOfTwo)
}

func TestSceneOptions(t *testing.T) {
	cfg := Default()
	cfg.Scene.SpheresPerRow = 3
	cfg.Scene.Slices = 8
	cfg.Scene.Lights = 17
	s := scene.NewScene(cfg.SceneOptions()...)

	assert.Equal(t, 27, s.SphereCount())
	assert.Equal(t, 8, s.Slices())
	assert.Equal(t, 17, s.Lights().Count())
	assert.True(t, s.Lights().Rotating())
	assert.Equal(t, cfg.Scene.LightSpeed, s.Lights().RotationSpeed())
}
