package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// compiler is the implementation of the Compiler interface.
type compiler struct {
	d    device.Device
	fsys fs.FS
	pp   PreProcessor
}

// Compiler turns a shader basename plus a set of enabled options into a linked program.
// Stage files are looked up as "<basename>.<ext>" in the compiler's file system.
type Compiler interface {
	// Compile builds the variant of basename selected by options.
	//
	// Parameters:
	//   - basename: the shader basename, e.g. "02_dais_geometry_pass"
	//   - options: enabled option names, turned into defines in order
	//
	// Returns:
	//   - device.Program: the linked program; the caller owns and releases it
	//   - error: ErrMissingStage, a pre-processor error or a device compile/link error
	Compile(basename string, options []string) (device.Program, error)

	// Stages reports which stages Compile would use for basename. A compute file selects
	// compute only; otherwise a geometry file selects vertex, geometry and fragment;
	// otherwise vertex and fragment.
	//
	// Returns:
	//   - []device.ShaderStage: the stages in pipeline order
	//   - error: ErrMissingStage when a required file is absent
	Stages(basename string) ([]device.ShaderStage, error)

	// PreProcessor returns the pre-processor, so callers can register additional snippets.
	PreProcessor() PreProcessor
}

var _ Compiler = &compiler{}

// NewCompiler creates a Compiler that links programs on d. Without WithFS or WithDir the
// current working directory is used.
//
// Parameters:
//   - d: the device, must not be nil
//   - options: variadic list of CompilerBuilderOption functions
//
// Returns:
//   - Compiler: the compiler
func NewCompiler(d device.Device, options ...CompilerBuilderOption) Compiler {
	if d == nil {
		panic("shader: NewCompiler requires a device")
	}
	c := &compiler{d: d}
	for _, option := range options {
		option(c)
	}
	if c.fsys == nil {
		c.fsys = os.DirFS(".")
	}
	if c.pp == nil {
		c.pp = NewPreProcessor()
	}
	return c
}

func (c *compiler) PreProcessor() PreProcessor {
	return c.pp
}

func (c *compiler) exists(name string) bool {
	_, err := fs.Stat(c.fsys, name)
	return err == nil
}

func (c *compiler) Stages(basename string) ([]device.ShaderStage, error) {
	var stages []device.ShaderStage
	switch {
	case c.exists(basename + "." + device.StageCompute.Ext()):
		stages = []device.ShaderStage{device.StageCompute}
	case c.exists(basename + "." + device.StageGeometry.Ext()):
		stages = []device.ShaderStage{device.StageVertex, device.StageGeometry, device.StageFragment}
	default:
		stages = []device.ShaderStage{device.StageVertex, device.StageFragment}
	}

	var missing []string
	for _, s := range stages {
		if name := basename + "." + s.Ext(); !c.exists(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingStage, strings.Join(missing, ", "))
	}
	return stages, nil
}

func (c *compiler) Compile(basename string, options []string) (device.Program, error) {
	stages, err := c.Stages(basename)
	if err != nil {
		return nil, err
	}

	defines := Defines(options)
	sources := make([]device.ShaderSource, 0, len(stages))
	for _, s := range stages {
		name := basename + "." + s.Ext()
		raw, err := fs.ReadFile(c.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", name, err)
		}
		src, err := c.pp.Process(string(raw), defines)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", name, err)
		}
		sources = append(sources, device.ShaderSource{Stage: s, Name: name, Source: src})
	}

	p, err := c.d.CreateProgram(basename, sources)
	if err != nil {
		if errors.Is(err, device.ErrCompile) || errors.Is(err, device.ErrLink) {
			return nil, err
		}
		return nil, fmt.Errorf("shader %s: %w", basename, err)
	}
	logger.Logger().Debug("program compiled", "shader", basename, "stages", len(stages), "options", options)
	return p, nil
}
