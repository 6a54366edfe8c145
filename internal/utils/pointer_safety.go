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

// PtrIf returns nil for the zero value so absent claims stay absent.
func PtrIf[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// Equal reports whether p is set and points at want.
func Equal[T comparable](p *T, want T) bool {
	return p != nil && *p == want
}
