// Package pool provides recyclable integer identifiers, id-keyed ordered
// storage, and reference-counted handles for opaque resources.
//
// The three types build on each other: an IDPool issues and recycles IDs,
// a Storage[T] owns an IDPool and keeps (id, value) entries sorted by id,
// and a Handle[T] grants reference-counted access to one entry, deleting
// it when the last handle is released.
//
// Structural mutation is serialized internally, but the package assumes a
// single logical owner performs all Create/Delete calls; see Storage for
// the exact guarantees.
package pool

import "math"

// ID identifies one live entry within a single pool. IDs are small
// integers, recycled after being freed, and are not unique across
// different pools or across the lifetime of the process.
type ID uint32

// IDPool issues and recycles IDs. The zero value is ready to use and
// issues IDs starting at 0.
//
// An IDPool performs no internal locking; Storage serializes access to
// its owned pool, and standalone use follows the package's single-owner
// model.
type IDPool struct {
	next      ID
	available []ID
}

// NextID returns an id that is not currently in use, preferring the most
// recently freed id over incrementing the counter so the live id range
// stays dense.
//
// NextID panics if the id space is exhausted.
func (p *IDPool) NextID() ID {
	if n := len(p.available); n > 0 {
		id := p.available[n-1]
		p.available = p.available[:n-1]
		return id
	}
	if p.next == math.MaxUint32 {
		panic("pool: id space exhausted")
	}
	id := p.next
	p.next++
	return id
}

// Free returns id to the pool for reuse. The id must have been issued by
// this pool and must not already be free; freeing an id that was never
// issued panics. Double frees are not detected.
func (p *IDPool) Free(id ID) {
	if id >= p.next {
		panic("pool: free of id never issued")
	}
	p.available = append(p.available, id)
}
