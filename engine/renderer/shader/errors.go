package shader

import "errors"

var (
	// ErrMissingStage is returned when a stage file required by the detected program shape is absent.
	ErrMissingStage = errors.New("shader: missing stage file")
	// ErrAnnotation is wrapped by malformed @oxy annotations.
	ErrAnnotation = errors.New("shader: malformed annotation")
	// ErrUnknownInclude is returned for @oxy:include names that are not registered.
	ErrUnknownInclude = errors.New("shader: unknown include")
)
