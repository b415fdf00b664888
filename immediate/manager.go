// Package immediate provides a byte-range sub-allocator for small
// per-draw data blobs. Many independently lived blobs share one growable
// backing buffer; freed ranges are reused with a first-fit scan.
package immediate

import (
	"sort"
	"sync"

	"github.com/FairlyBet/wgpurenderer/pool"
)

// minBufferSize is the smallest backing buffer allocated on first growth.
const minBufferSize = 64

// span is one occupied byte range within the backing buffer.
type span struct {
	start int
	size  int
}

// Manager packs byte blobs into one resizable backing buffer, keyed by
// recyclable ids from an owned pool.IDPool.
//
// Allocation is first-fit: the scan walks occupied ranges in ascending
// start order and places the new blob in the first gap large enough,
// favoring allocation speed over packing density. Freed gaps are never
// merged and the buffer never shrinks; blobs are expected to be small
// and short-lived, roughly one render pass worth of per-draw state.
//
// Structural mutation is serialized by an internal mutex. Slices
// returned by Get alias the backing buffer and are invalidated by any
// Add that grows it.
type Manager struct {
	mu    sync.Mutex
	pool  pool.IDPool
	buf   []byte
	slots map[pool.ID]*span // nil marks a freed slot
	spans []*span           // live spans sorted by start
}

// NewManager returns an empty manager. The backing buffer is allocated
// lazily on first use.
func NewManager() *Manager {
	return &Manager{slots: make(map[pool.ID]*span)}
}

// Add reserves size bytes and returns the allocation's id. Zero-size
// allocations are permitted and occupy a zero-length range.
//
// If no existing gap fits, the backing buffer grows to
// max(2*len, 2*end of the new allocation, a small minimum) and the
// allocation is placed at the end of the previously used region. Growth
// reallocates the buffer, invalidating all previously returned slices.
func (m *Manager) Add(size int) pool.ID {
	if size < 0 {
		panic("immediate: negative allocation size")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// First fit: the gap before each occupied range, then the tail gap.
	start := -1
	prevEnd := 0
	for _, s := range m.spans {
		if s.start-prevEnd >= size {
			start = prevEnd
			break
		}
		prevEnd = s.start + s.size
	}
	if start < 0 {
		if len(m.buf)-prevEnd >= size {
			start = prevEnd
		} else {
			start = prevEnd
			m.grow(start + size)
		}
	}

	s := &span{start: start, size: size}
	i := sort.Search(len(m.spans), func(i int) bool { return m.spans[i].start >= start })
	m.spans = append(m.spans, nil)
	copy(m.spans[i+1:], m.spans[i:])
	m.spans[i] = s

	id := m.pool.NextID()
	m.slots[id] = s
	return id
}

// Get returns the byte slice for a live allocation. The second result is
// false for ids that are unknown or have been removed. The slice aliases
// the backing buffer: it is writable in place and invalidated by any Add
// that triggers growth.
func (m *Manager) Get(id pool.ID) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok || s == nil {
		return nil, false
	}
	return m.buf[s.start : s.start+s.size : s.start+s.size], true
}

// Range returns the byte offset and size of a live allocation within the
// backing buffer. The second result is false for unknown or freed ids.
func (m *Manager) Range(id pool.ID) (offset, size int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, present := m.slots[id]
	if !present || s == nil {
		return 0, 0, false
	}
	return s.start, s.size, true
}

// Remove frees the allocation's range for future first-fit scans and
// returns its id to the pool. The freed slot stays in the table as an
// empty marker, so Get for the id reports a miss rather than stale data.
// Removing an id that is unknown or already freed panics.
func (m *Manager) Remove(id pool.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok || s == nil {
		panic("immediate: remove of unknown or freed id")
	}

	i := sort.Search(len(m.spans), func(i int) bool { return m.spans[i].start >= s.start })
	for i < len(m.spans) && m.spans[i] != s {
		i++
	}
	if i == len(m.spans) {
		panic("immediate: slot missing from span index")
	}
	copy(m.spans[i:], m.spans[i+1:])
	m.spans[len(m.spans)-1] = nil
	m.spans = m.spans[:len(m.spans)-1]

	m.slots[id] = nil
	m.pool.Free(id)
}

// Len returns the number of live allocations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spans)
}

// Cap returns the current backing buffer length in bytes.
func (m *Manager) Cap() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buf)
}

// Bytes returns the whole backing buffer, for executors that mirror
// the arena to the GPU wholesale instead of staging block by block.
// The slice is invalidated by growth like any other.
func (m *Manager) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf
}

// grow resizes the backing buffer so that at least end bytes fit.
// Callers must hold m.mu.
func (m *Manager) grow(end int) {
	n := 2 * len(m.buf)
	if 2*end > n {
		n = 2 * end
	}
	if n < minBufferSize {
		n = minBufferSize
	}
	next := make([]byte, n)
	copy(next, m.buf)
	m.buf = next
}
