package pool

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Storage is an ordered collection of (id, value) entries keyed by IDs
// from an owned IDPool. Entries stay sorted by id at all times, giving
// O(log n) lookup and removal.
//
// Structural mutation (Create, Delete) is serialized by an internal
// mutex, and Handle reference counts are atomic, so accidental
// cross-goroutine use fails loudly rather than corrupting the storage.
// The intended model is still a single logical owner: pointers returned
// by Get remain valid until the entry is deleted, with no further
// synchronization of the pointed-to value.
type Storage[T any] struct {
	mu       sync.Mutex
	pool     IDPool
	entries  []*entry[T]
	onDelete func(T)
}

type entry[T any] struct {
	id    ID
	value T
}

// NewStorage returns an empty storage.
func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{}
}

// Create stores value under a fresh id and returns the first handle to
// it, holding reference count 1. Create always succeeds.
func (s *Storage[T]) Create(value T) *Handle[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.pool.NextID()
	e := &entry[T]{id: id, value: value}

	// Recycled ids can be smaller than existing ones; keep the slice
	// sorted by id.
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].id >= id })
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e

	h := &Handle[T]{s: s, id: id, refs: new(atomic.Int32)}
	h.refs.Store(1)
	return h
}

// SetDeleteFunc registers fn to be called with the removed value after
// every Delete. The storage owner uses this to release resources tied to
// an entry (GPU objects, file handles) exactly once, when the last
// handle goes away. fn runs outside the storage lock.
func (s *Storage[T]) SetDeleteFunc(fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = fn
}

// Delete removes the entry for id and returns the id to the pool.
// Deleting an id that is not currently present panics: under the handle
// invariant every live id has at least one referencing handle, so an
// absent id indicates a caller bug.
func (s *Storage[T]) Delete(id ID) {
	s.mu.Lock()

	i, ok := s.search(id)
	if !ok {
		s.mu.Unlock()
		panic("pool: delete of id not present in storage")
	}
	e := s.entries[i]
	copy(s.entries[i:], s.entries[i+1:])
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	s.pool.Free(id)
	fn := s.onDelete
	s.mu.Unlock()

	if fn != nil {
		fn(e.value)
	}
}

// Get returns a pointer to the value stored under id, or (nil, false) if
// the id is not currently present. The pointer stays valid until the
// entry is deleted.
func (s *Storage[T]) Get(id ID) (*T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.search(id)
	if !ok {
		return nil, false
	}
	return &s.entries[i].value, true
}

// Len returns the number of live entries.
func (s *Storage[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// IDs returns the currently live ids in ascending order.
func (s *Storage[T]) IDs() []ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]ID, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.id
	}
	return ids
}

// search returns the position of id in the sorted entry slice.
// Callers must hold s.mu.
func (s *Storage[T]) search(id ID) (int, bool) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].id >= id })
	if i < len(s.entries) && s.entries[i].id == id {
		return i, true
	}
	return i, false
}
