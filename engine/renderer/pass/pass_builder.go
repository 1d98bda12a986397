package pass

// PassBuilderOption is a function that configures a Pass during construction.
type PassBuilderOption func(*pass)

// WithCondition makes the pass run only while *enabled is true. Pipelines pass the pointer
// of one of their options so toggling the option switches the pass without rebuilding it.
//
// Parameters:
//   - enabled: the condition, nil runs unconditionally
//
// Returns:
//   - PassBuilderOption: a function that applies the condition
func WithCondition(enabled *bool) PassBuilderOption {
	return func(p *pass) {
		p.condition = enabled
	}
}

// WithShader sets the shader basename compiled by Compile.
//
// Parameters:
//   - basename: stage files are "<basename>.<ext>"
//
// Returns:
//   - PassBuilderOption: a function that applies the basename
func WithShader(basename string) PassBuilderOption {
	return func(p *pass) {
		p.shaderBase = basename
	}
}

// WithRender sets the callback invoked by Run while the pass program is bound.
func WithRender(render func()) PassBuilderOption {
	return func(p *pass) {
		if render != nil {
			p.render = render
		}
	}
}
