// annotations.go defines the annotation syntax understood by the GLSL pre-processor.
// Annotations are single-line GLSL comments prefixed with @oxy: and are replaced by the
// pre-processor before the source reaches the driver.
package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a GLSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a GLSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered GLSL snippet at the annotation site. Each
	// snippet is expanded at most once per source; snippets it requires are expanded first.
	//
	// Syntax: //@oxy:include <name>
	//
	// Example: //@oxy:include hashtable
	annotationTypeInclude AnnotationType = "include"
)

// Annotation represents a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. For include: [0] = snippet name.
	Args []string

	// Line is the 1-based line number in the original source, used for error reporting.
	Line int
}

// parseAnnotation attempts to parse a single line of GLSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not carry the annotation prefix.
//
// Parameters:
//   - line: the raw source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: %w: empty @oxy annotation", lineNum, ErrAnnotation)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: %w: @oxy include annotation requires exactly one argument", lineNum, ErrAnnotation)
		}
		return &Annotation{Type: annotationTypeInclude, Args: args[1:], Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: %w: unknown @oxy annotation type %q", lineNum, ErrAnnotation, args[0])
	}
}
