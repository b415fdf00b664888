package pool

import "sync/atomic"

// Handle is a reference-counted capability granting access to one entry
// in a Storage. While at least one handle for an id exists, the entry
// exists; releasing the last handle deletes the entry and recycles the
// id, exactly once.
//
// Handles are created by Storage.Create and multiplied by Clone. Each
// handle instance must be released exactly once; Clone or Release on an
// already released handle panics.
type Handle[T any] struct {
	s        *Storage[T]
	id       ID
	refs     *atomic.Int32
	released atomic.Bool
}

// ID returns the id of the referenced entry. Valid even after Release.
func (h *Handle[T]) ID() ID {
	return h.id
}

// Clone returns a new handle to the same entry, incrementing the shared
// reference count. Clone is O(1).
func (h *Handle[T]) Clone() *Handle[T] {
	if h.released.Load() {
		panic("pool: clone of released handle")
	}
	h.refs.Add(1)
	return &Handle[T]{s: h.s, id: h.id, refs: h.refs}
}

// Release drops this handle's reference. When the count reaches zero the
// entry is deleted from the storage and the id recycled. Releasing the
// same handle twice panics.
func (h *Handle[T]) Release() {
	if !h.released.CompareAndSwap(false, true) {
		panic("pool: handle released twice")
	}
	if h.refs.Add(-1) == 0 {
		h.s.Delete(h.id)
	}
}

// Equal reports whether two handles refer to the same entry. Equality is
// purely by id; handles are only meaningfully comparable within one
// storage.
func (h *Handle[T]) Equal(o *Handle[T]) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.id == o.id
}

// Value resolves the handle to a pointer at the stored value. Calling
// Value on a released handle panics.
func (h *Handle[T]) Value() *T {
	if h.released.Load() {
		panic("pool: use of released handle")
	}
	v, ok := h.s.Get(h.id)
	if !ok {
		// Unreachable while the handle holds a reference.
		panic("pool: handle target missing from storage")
	}
	return v
}
