package worklist

// ListBuilderOption is a function that configures a List during construction.
type ListBuilderOption func(*List)

// WithBindings overrides the storage binding indices of the header and item buffers.
//
// Parameters:
//   - header: binding index of the header buffer
//   - items: binding index of the item buffer
//
// Returns:
//   - ListBuilderOption: a function that applies the bindings
func WithBindings(header, items uint32) ListBuilderOption {
	return func(l *List) {
		l.headerBinding = header
		l.itemsBinding = items
	}
}

// WithLabelPrefix sets the prefix of the buffer labels ("<prefix>.header", "<prefix>.items").
// Defaults to "worklist".
func WithLabelPrefix(prefix string) ListBuilderOption {
	return func(l *List) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}
