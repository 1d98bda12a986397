// Package config loads the harness settings from an optional TOML file overlaid by
// command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// ErrInvalid is wrapped by every validation error that cannot be fixed by clamping.
var ErrInvalid = errors.New("config: invalid value")

// Window is the [window] table.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Render is the [render] table.
type Render struct {
	Algorithm    string `toml:"algorithm"`
	ShaderDir    string `toml:"shader_dir"`
	WatchShaders bool   `toml:"watch_shaders"`
	HashCapacity uint32 `toml:"hash_capacity"`
	Samples      int    `toml:"samples"`
	ForceSync    bool   `toml:"force_sync"`
}

// Scene is the [scene] table.
type Scene struct {
	SpheresPerRow int     `toml:"spheres_per_row"`
	Slices        int     `toml:"slices"`
	Lights        int     `toml:"lights"`
	LightSpeed    float32 `toml:"light_speed"`
	RotateLights  bool    `toml:"rotate_lights"`
	MinLightRange float32 `toml:"min_light_range"`
	MaxLightRange float32 `toml:"max_light_range"`
}

// Debug is the [debug] table.
type Debug struct {
	LogLevel string `toml:"log_level"`
	Profiler bool   `toml:"profiler"`
}

// Config holds every setting of the harness.
type Config struct {
	Window Window `toml:"window"`
	Render Render `toml:"render"`
	Scene  Scene  `toml:"scene"`
	Debug  Debug  `toml:"debug"`
}

// Default returns the settings used when neither a file nor a flag says otherwise.
func Default() Config {
	return Config{
		Window: Window{Title: "oxy-shading", Width: 1280, Height: 720},
		Render: Render{
			Algorithm:    algorithm.Forward.Short(),
			ShaderDir:    "shaders",
			HashCapacity: hashtable.DefaultCapacity,
		},
		Scene: Scene{
			SpheresPerRow: scene.DefaultSpheresPerRow,
			Slices:        scene.DefaultSlices,
			Lights:        64,
			LightSpeed:    0.01,
			RotateLights:  true,
			MinLightRange: 1,
			MaxLightRange: 4,
		},
		Debug: Debug{LogLevel: "info"},
	}
}

// Decode overlays the TOML document in data onto c. Unknown keys are rejected.
//
// Returns:
//   - error: a decode error carrying the offending position
func (c *Config) Decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Encode returns c as a TOML document.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// LoadFile overlays the file at path onto c. A missing file is not an error.
//
// Returns:
//   - bool: whether the file existed
//   - error: a read or decode error
func (c *Config) LoadFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("config: %w", err)
	}
	if err := c.Decode(data); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}

// Load builds the configuration for a command line: defaults, then the file named by
// --config (config.toml when absent), then every flag that was set explicitly, then
// Validate.
//
// Parameters:
//   - name: the program name used in usage output
//   - args: the arguments without the program name
//
// Returns:
//   - Config: the validated configuration
//   - error: pflag.ErrHelp when help was requested, or a parse, load or validation error
func Load(name string, args []string) (Config, error) {
	cfg := Default()
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	path := flags.StringP("config", "c", "config.toml", "TOML configuration file")
	overlay := cfg.BindFlags(flags)
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	found, err := cfg.LoadFile(*path)
	if err != nil {
		return cfg, err
	}
	if !found && flags.Changed("config") {
		return cfg, fmt.Errorf("%w: config file %s not found", ErrInvalid, *path)
	}
	overlay()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BindFlags declares one flag per setting on flags, defaulting to the current values. The
// returned function copies every flag the user changed back into c, so a file loaded in
// between is only overridden where the command line says so.
func (c *Config) BindFlags(flags *pflag.FlagSet) func() {
	v := *c
	flags.StringVar(&v.Window.Title, "title", v.Window.Title, "window title")
	flags.IntVar(&v.Window.Width, "width", v.Window.Width, "window width in pixels")
	flags.IntVar(&v.Window.Height, "height", v.Window.Height, "window height in pixels")

	flags.StringVarP(&v.Render.Algorithm, "algorithm", "a", v.Render.Algorithm, "forward, deferred, tiled or dais")
	flags.StringVar(&v.Render.ShaderDir, "shaders", v.Render.ShaderDir, "shader directory")
	flags.BoolVarP(&v.Render.WatchShaders, "watch", "w", v.Render.WatchShaders, "recompile when shader files change")
	flags.Uint32Var(&v.Render.HashCapacity, "hash-size", v.Render.HashCapacity, "DAIS hash table buckets, a power of two in [256, 32768]")
	flags.IntVar(&v.Render.Samples, "msaa", v.Render.Samples, "MSAA samples of offscreen targets: 0, 4 or 8")
	flags.BoolVar(&v.Render.ForceSync, "force-sync", v.Render.ForceSync, "drain the GPU before every timer start")

	flags.IntVar(&v.Scene.SpheresPerRow, "spheres", v.Scene.SpheresPerRow, "spheres per grid row (1-100)")
	flags.IntVar(&v.Scene.Slices, "slices", v.Scene.Slices, "sphere sectors and stacks (5-100)")
	flags.IntVar(&v.Scene.Lights, "lights", v.Scene.Lights, "number of point lights (1-1024)")
	flags.Float32Var(&v.Scene.LightSpeed, "light-speed", v.Scene.LightSpeed, "light rotation in radians per frame")
	flags.BoolVar(&v.Scene.RotateLights, "rotate", v.Scene.RotateLights, "animate the lights")
	flags.Float32Var(&v.Scene.MinLightRange, "min-range", v.Scene.MinLightRange, "smallest light radius")
	flags.Float32Var(&v.Scene.MaxLightRange, "max-range", v.Scene.MaxLightRange, "largest light radius")

	flags.StringVarP(&v.Debug.LogLevel, "log-level", "l", v.Debug.LogLevel, "trace, debug, info, warn or error")
	flags.BoolVar(&v.Debug.Profiler, "profile", v.Debug.Profiler, "log frame rate and memory statistics")

	set := map[string]func(){
		"title":       func() { c.Window.Title = v.Window.Title },
		"width":       func() { c.Window.Width = v.Window.Width },
		"height":      func() { c.Window.Height = v.Window.Height },
		"algorithm":   func() { c.Render.Algorithm = v.Render.Algorithm },
		"shaders":     func() { c.Render.ShaderDir = v.Render.ShaderDir },
		"watch":       func() { c.Render.WatchShaders = v.Render.WatchShaders },
		"hash-size":   func() { c.Render.HashCapacity = v.Render.HashCapacity },
		"msaa":        func() { c.Render.Samples = v.Render.Samples },
		"force-sync":  func() { c.Render.ForceSync = v.Render.ForceSync },
		"spheres":     func() { c.Scene.SpheresPerRow = v.Scene.SpheresPerRow },
		"slices":      func() { c.Scene.Slices = v.Scene.Slices },
		"lights":      func() { c.Scene.Lights = v.Scene.Lights },
		"light-speed": func() { c.Scene.LightSpeed = v.Scene.LightSpeed },
		"rotate":      func() { c.Scene.RotateLights = v.Scene.RotateLights },
		"min-range":   func() { c.Scene.MinLightRange = v.Scene.MinLightRange },
		"max-range":   func() { c.Scene.MaxLightRange = v.Scene.MaxLightRange },
		"log-level":   func() { c.Debug.LogLevel = v.Debug.LogLevel },
		"profile":     func() { c.Debug.Profiler = v.Debug.Profiler },
	}
	return func() {
		flags.Visit(func(f *pflag.Flag) {
			if apply, ok := set[f.Name]; ok {
				apply()
			}
		})
	}
}

// Validate clamps the scene and window settings into their supported ranges and rejects
// values that have no sensible nearest neighbour.
//
// Returns:
//   - error: wrapping ErrInvalid, algorithm.ErrUnknownKind, algorithm.ErrInvalidSamples or
//     a hashtable capacity error
func (c *Config) Validate() error {
	c.Window.Width = max(c.Window.Width, 1)
	c.Window.Height = max(c.Window.Height, 1)
	c.Scene.SpheresPerRow = common.Clamp(c.Scene.SpheresPerRow, scene.MinSpheresPerRow, scene.MaxSpheresPerRow)
	c.Scene.Slices = common.Clamp(c.Scene.Slices, scene.MinSlices, scene.MaxSlices)
	c.Scene.Lights = common.Clamp(c.Scene.Lights, 1, light.MaxLights)
	c.Scene.MinLightRange = max(c.Scene.MinLightRange, 0)
	if c.Scene.MaxLightRange < c.Scene.MinLightRange {
		c.Scene.MaxLightRange = c.Scene.MinLightRange
	}

	if _, err := algorithm.ParseKind(c.Render.Algorithm); err != nil {
		return err
	}
	if err := algorithm.ValidateSamples(c.Render.Samples); err != nil {
		return err
	}
	if err := hashtable.ValidateCapacity(c.Render.HashCapacity); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Debug.LogLevel); err != nil {
		return err
	}
	if c.Render.ShaderDir == "" {
		return fmt.Errorf("%w: empty shader directory", ErrInvalid)
	}
	return nil
}

// Kind returns the selected algorithm. Only valid after Validate.
func (c Config) Kind() algorithm.Kind {
	k, _ := algorithm.ParseKind(c.Render.Algorithm)
	return k
}

// Level returns the selected log level. Only valid after Validate.
func (c Config) Level() slog.Level {
	l, _ := logger.ParseLevel(c.Debug.LogLevel)
	return l
}

// Resolution returns the initial window size.
func (c Config) Resolution() common.Resolution {
	return common.Resolution{Width: c.Window.Width, Height: c.Window.Height}
}

// LightOptions returns the light set options for the scene settings.
func (c Config) LightOptions() []light.SetBuilderOption {
	return []light.SetBuilderOption{
		light.WithCount(c.Scene.Lights),
		light.WithRangeLimits(c.Scene.MinLightRange, c.Scene.MaxLightRange),
		light.WithRotation(c.Scene.RotateLights, c.Scene.LightSpeed),
	}
}

// SceneOptions returns the scene options, lights included.
func (c Config) SceneOptions() []scene.SceneBuilderOption {
	return []scene.SceneBuilderOption{
		scene.WithSpheresPerRow(c.Scene.SpheresPerRow),
		scene.WithSlices(c.Scene.Slices),
		scene.WithLightOptions(c.LightOptions()...),
	}
}
