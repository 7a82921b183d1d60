// Package pointer provides helpers for optional values.
package pointer

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// ValOrDefault returns the value p points to, or def when p is nil.
func ValOrDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}

	return *p
}
