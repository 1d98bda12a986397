package pipeline

import "github.com/Carmen-Shannon/oxy-shading/common"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*Pipeline)

// WithShowDebug sets whether the debug hook runs after each frame.
//
// Parameters:
//   - v: true to run the debug hook
//
// Returns:
//   - PipelineBuilderOption: a function that applies the flag
func WithShowDebug(v bool) PipelineBuilderOption {
	return func(p *Pipeline) {
		p.showDebug = v
	}
}

// WithDebugHook sets the callback run after each frame while debug output is enabled.
func WithDebugHook(hook func()) PipelineBuilderOption {
	return func(p *Pipeline) {
		p.debugHook = hook
	}
}

// WithResizeHook sets the callback OnResize forwards to.
func WithResizeHook(hook func(common.Resolution) error) PipelineBuilderOption {
	return func(p *Pipeline) {
		p.resizeHook = hook
	}
}

// WithDefines adds the names returned by fn to the enabled options on every compile. Use it
// for variant state that is not a user option, such as a multisampled target.
func WithDefines(fn func() []string) PipelineBuilderOption {
	return func(p *Pipeline) {
		p.defines = fn
	}
}
