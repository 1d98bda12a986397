package common

// Coalesce returns the first of values that is not the zero value, or the zero value.
// Used for option defaults where zero means unset.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
