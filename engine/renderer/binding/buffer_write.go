package binding

import (
	"errors"
	"fmt"
)

// BufferWrite describes a single host-to-device buffer write targeting a labelled buffer on
// a Provider at a given byte offset.
type BufferWrite struct {
	Provider Provider
	Buffer   string
	Offset   int
	Data     []byte
}

// ApplyWrites performs writes in order and returns every failure joined.
//
// Parameters:
//   - writes: the writes to perform
//
// Returns:
//   - error: nil when every write succeeded
func ApplyWrites(writes ...BufferWrite) error {
	var errs []error
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Buffer)
		if buf == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownBuffer, w.Buffer))
			continue
		}
		if err := buf.Write(w.Offset, w.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
