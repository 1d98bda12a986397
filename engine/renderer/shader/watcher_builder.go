package shader

import "time"

// WatcherBuilderOption is a function that configures a Watcher during construction.
type WatcherBuilderOption func(*Watcher)

// WithDebounce sets the quiet period after the last change before a request is emitted.
// Defaults to 200ms.
//
// Parameters:
//   - d: the debounce window; non-positive values keep the default
//
// Returns:
//   - WatcherBuilderOption: a function that applies the window
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}
