package utils

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// Equal reports whether v is set and holds want. A nil pointer never matches,
// even when want is the zero value.
func Equal[T comparable](v *T, want T) bool {
	return v != nil && *v == want
}
