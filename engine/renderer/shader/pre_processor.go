// pre_processor.go implements the Oxy GLSL pre-processor. It injects option defines right
// after the #version directive and expands @oxy:include annotations from a registry of
// embedded GLSL snippets, so kernels shared between passes (the hash table and the
// work-list) are written once.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/worklist"
)

// registryEntry pairs a GLSL snippet with the snippets it depends on.
type registryEntry struct {
	// Source is the GLSL text injected by @oxy:include.
	Source string

	// Requires lists snippets that must be expanded before this one.
	Requires []string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps include names to their snippets.
	registry map[string]registryEntry
}

// PreProcessor rewrites GLSL sources before compilation.
type PreProcessor interface {
	// Process injects defines after the #version line (or at the top when there is none)
	// and replaces @oxy:include annotations with registered snippets.
	//
	// Parameters:
	//   - source: the raw GLSL source
	//   - defines: the text produced by Defines, may be empty
	//
	// Returns:
	//   - string: the processed source
	//   - error: an error if an annotation is malformed or names an unknown snippet
	Process(source, defines string) (string, error)

	// Register adds or replaces a snippet.
	//
	// Parameters:
	//   - name: the include name
	//   - source: the snippet text
	//   - requires: snippets expanded before this one
	Register(name, source string, requires ...string)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's snippets registered:
// "worklist" and "hashtable" (which requires "worklist").
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[string]registryEntry{
			"worklist":  {Source: worklist.GLSLInclude()},
			"hashtable": {Source: hashtable.GLSLInclude(), Requires: []string{"worklist"}},
		},
	}
}

// Defines renders one "#define NAME" line per option, in order, with spaces replaced by
// underscores.
//
// Parameters:
//   - options: enabled option names
//
// Returns:
//   - string: the define block, empty when options is empty
func Defines(options []string) string {
	var b strings.Builder
	for _, o := range options {
		b.WriteString("#define ")
		b.WriteString(strings.ReplaceAll(o, " ", "_"))
		b.WriteByte('\n')
	}
	return b.String()
}

func (p *preProcessor) Register(name, source string, requires ...string) {
	p.registry[name] = registryEntry{Source: source, Requires: requires}
}

func (p *preProcessor) Process(source, defines string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines)+8)
	expanded := make(map[string]bool)

	versionAt := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#version") {
			versionAt = i
			break
		}
	}
	defines = strings.TrimSuffix(defines, "\n")
	if versionAt < 0 && defines != "" {
		out = append(out, defines)
	}

	// iterate through each line of the source and attempt to parse it as an annotation, if it's an include replace it with the registered snippet, otherwise keep the line as is.
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			if i == versionAt && defines != "" {
				out = append(out, defines)
			}
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			snippet, err := p.expand(a.Args[0], expanded, nil)
			if err != nil {
				return "", fmt.Errorf("line %d: %w", a.Line, err)
			}
			if snippet != "" {
				out = append(out, snippet)
			}
		default:
			return "", fmt.Errorf("line %d: %w: unhandled annotation type %q", a.Line, ErrAnnotation, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

// expand returns the snippet for name preceded by any required snippets not yet expanded.
func (p *preProcessor) expand(name string, expanded map[string]bool, stack []string) (string, error) {
	if expanded[name] {
		return "", nil
	}
	for _, s := range stack {
		if s == name {
			return "", fmt.Errorf("%w: include cycle %s -> %s", ErrUnknownInclude, strings.Join(stack, " -> "), name)
		}
	}
	entry, ok := p.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownInclude, name)
	}

	var parts []string
	for _, req := range entry.Requires {
		s, err := p.expand(req, expanded, append(stack, name))
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	expanded[name] = true
	parts = append(parts, strings.TrimSuffix(entry.Source, "\n"))
	return strings.Join(parts, "\n"), nil
}
