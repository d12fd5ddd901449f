package common

// Coalesce picks the first argument that is not the zero value of T.
// Loaders use it to apply defaults to optional document fields.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
