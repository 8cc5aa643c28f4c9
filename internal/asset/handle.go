package asset

import "sync/atomic"

// entry is the shared backing value of every handle cloned from the same
// registration. value is written once at registration and never again.
type entry[T any] struct {
	key   string
	value T
	refs  atomic.Int64
}

// Handle is a cloneable, reference-counted reference to a registered asset.
// Copies made with Clone share the same underlying value; the zero Handle
// refers to nothing.
type Handle[T any] struct {
	e *entry[T]
}

// Clone returns another handle to the same asset and bumps its ref count.
func (h Handle[T]) Clone() Handle[T] {
	if h.e != nil {
		h.e.refs.Add(1)
	}
	return h
}

// Release drops one reference. The value stays owned by its Store.
func (h Handle[T]) Release() {
	if h.e != nil {
		h.e.refs.Add(-1)
	}
}

// Value returns the asset. Safe from any goroutine.
func (h Handle[T]) Value() T {
	var zero T
	if h.e == nil {
		return zero
	}
	return h.e.value
}

func (h Handle[T]) Key() string {
	if h.e == nil {
		return ""
	}
	return h.e.key
}

// Refs reports the number of live handles, the Store's own included.
func (h Handle[T]) Refs() int64 {
	if h.e == nil {
		return 0
	}
	return h.e.refs.Load()
}

func (h Handle[T]) IsZero() bool { return h.e == nil }

// Same reports whether both handles point at the same registration.
func (h Handle[T]) Same(o Handle[T]) bool { return h.e == o.e }
