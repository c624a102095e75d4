// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: blob.go — Reference-counted value handles over arena blocks
//
// Purpose:
//   - Wraps every cached payload in a shared-ownership handle so a reader
//     that copied the handle before an eviction keeps the payload alive
//     independently of the table slot.
//   - Small payloads live in fixed arena blocks; oversized payloads (or an
//     exhausted arena) fall back to the heap, where the collector takes over.
//
// Layout of a block:
//   refs  int32   — shared-ownership count, atomic
//   _     uint32  — reserved
//   size  uint32  — payload length in bytes
//   _     uint32  — reserved
//   data  [size]byte
//
// Safety model:
//   - Retain/Release pair like shared_ptr copies. Release of the last
//     reference returns an arena block to its free list immediately, so the
//     final Release must be deferred until no lock-free reader can still be
//     copying the handle — the cache's epoch reclaimer provides exactly that
//     window.
// ─────────────────────────────────────────────────────────────────────────────

package blob

import (
	"bytes"
	"sync/atomic"
	"unsafe"

	"flatlru/arena"
)

const headerSize = 16

type header struct {
	refs int32
	_    uint32
	size uint32
	_    uint32
}

// Block is the opaque storage unit behind a Handle. Exposed as a named type
// so the flat map can hold value slots in atomic.Pointer[Block].
type Block struct{ _ [0]byte }

// Handle is a single-word shared-ownership reference to one payload.
// A zero Handle is the null handle. Single-word so a racing copy can never
// be torn; seqlock validation decides whether the copy may be used.
type Handle struct {
	b *Block
}

// New copies payload into a fresh block with one reference. The arena is
// consulted first; nil arena, oversized payloads, and arena exhaustion all
// land on the heap.
func New(a *arena.Arena, payload []byte) Handle {
	n := len(payload)

	var p unsafe.Pointer
	if a != nil && headerSize+n <= a.BlockSize() {
		p = a.Alloc()
	}
	if p == nil {
		// Heap fallback. Allocated as words so the header stays aligned
		// for atomic access.
		buf := make([]uint64, (headerSize+n+7)/8)
		p = unsafe.Pointer(&buf[0])
	}

	h := (*header)(p)
	h.refs = 1
	h.size = uint32(n)
	copy(unsafe.Slice((*byte)(unsafe.Add(p, headerSize)), n), payload)

	return Handle{(*Block)(p)}
}

// Wrap rebuilds a Handle from a raw block pointer taken out of a value slot.
func Wrap(b *Block) Handle {
	return Handle{b}
}

// Raw exposes the block pointer for atomic slot storage.
//
//go:nosplit
func (h Handle) Raw() *Block {
	return h.b
}

// IsNil reports whether h references no payload.
//
//go:nosplit
func (h Handle) IsNil() bool {
	return h.b == nil
}

// Bytes returns the payload. The slice aliases block memory and is valid
// only while the caller holds a reference.
//
//go:nosplit
func (h Handle) Bytes() []byte {
	hdr := (*header)(unsafe.Pointer(h.b))
	return unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(h.b), headerSize)), hdr.size)
}

// Len returns the payload length without materializing the slice.
//
//go:nosplit
func (h Handle) Len() int {
	return int((*header)(unsafe.Pointer(h.b)).size)
}

// Retain adds one shared reference. Must only be called while the handle is
// provably live: under the write lock, or inside an epoch guard after a
// successful generation validation.
//
//go:nosplit
func (h Handle) Retain() {
	atomic.AddInt32(&(*header)(unsafe.Pointer(h.b)).refs, 1)
}

// Release drops one reference. The last release of an arena block pushes it
// back on the arena free list; heap blocks are left to the collector.
//
//go:nosplit
func (h Handle) Release(a *arena.Arena) {
	if h.b == nil {
		return
	}
	if atomic.AddInt32(&(*header)(unsafe.Pointer(h.b)).refs, -1) == 0 {
		if a != nil {
			a.Free(unsafe.Pointer(h.b))
		}
	}
}

// EqualBytes reports payload equality against p. This is the value
// comparison behind the cache's quiet-update path.
func (h Handle) EqualBytes(p []byte) bool {
	if h.b == nil {
		return false
	}
	return bytes.Equal(h.Bytes(), p)
}
