package models

// Memo caches the first successful result of a computation for the lifetime
// of the record that owns it. A failed computation is not cached.
//
// A Memo belongs to one in-memory record instance and is not safe for
// concurrent use; replace the record (or call Reset) to invalidate it.
type Memo[T any] struct {
	value  T
	loaded bool
}

// Load returns the cached value, computing it on first use
func (m *Memo[T]) Load(compute func() (T, error)) (T, error) {
	if m.loaded {
		return m.value, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	m.value = v
	m.loaded = true
	return v, nil
}

// Loaded reports whether a value has been cached
func (m *Memo[T]) Loaded() bool {
	return m.loaded
}

// Reset discards the cached value
func (m *Memo[T]) Reset() {
	var zero T
	m.value = zero
	m.loaded = false
}
