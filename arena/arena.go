// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: arena.go — Huge-page value arena with lock-free block reuse
//
// Purpose:
//   - Hands out fixed-size blocks for cached values from one large mapping,
//     cutting TLB pressure for big payloads.
//   - Bump allocation for fresh blocks, CAS free list for single-block reuse.
//   - Exhaustion (or an unavailable mapping) is never an error: callers fall
//     back to the general-purpose heap.
//
// Notes:
//   - The mapping lives outside the Go heap; pointers into it are opaque to
//     the collector. Callers own the reclamation protocol (the cache defers
//     frees through its epoch reclaimer).
// ─────────────────────────────────────────────────────────────────────────────

package arena

import (
	"sync/atomic"
	"unsafe"

	"flatlru/constants"
	"flatlru/debug"
	"flatlru/utils"
)

// Arena is a bump allocator over one contiguous mapping, with a free list
// threaded through returned blocks (the first word of a free block is the
// address of the next free block).
type Arena struct {
	mapping   []byte // backing mapping; nil when unavailable
	base      uintptr
	capacity  uintptr
	blockSize uintptr

	offset   atomic.Uintptr // bump cursor, multiple of blockSize
	freeHead atomic.Uintptr // top of the free-block stack, 0 = empty
	reused   atomic.Uint64  // blocks served from the free list
	missed   atomic.Uint64  // allocations that fell through to the heap
}

// Stats is a point-in-time snapshot of allocator activity.
type Stats struct {
	BumpBytes uint64 // bytes consumed from the mapping by fresh blocks
	Reused    uint64 // free-list hits
	Missed    uint64 // allocations the arena could not serve
}

// New maps pages×HugePageSize bytes and carves it into blockSize blocks.
// blockSize must be a power of two able to hold at least one free-list word.
// A failed huge-page mapping degrades to a plain mapping; a failed plain
// mapping degrades to an unmapped arena whose every Alloc returns nil.
func New(blockSize, pages int) *Arena {
	if !utils.IsPow2(blockSize) || blockSize < 16 {
		panic("arena: block size must be a power of two ≥ 16")
	}
	if pages < 1 {
		panic("arena: at least one huge page required")
	}

	a := &Arena{blockSize: uintptr(blockSize)}

	m, err := mapPages(pages * constants.HugePageSize)
	if err != nil || len(m) == 0 {
		debug.DropError("arena: mapping unavailable, all blocks from heap", err)
		return a
	}
	a.mapping = m
	a.base = uintptr(unsafe.Pointer(&m[0]))
	a.capacity = uintptr(len(m))
	return a
}

// BlockSize returns the fixed block size in bytes.
//
//go:nosplit
func (a *Arena) BlockSize() int {
	if a == nil {
		return 0
	}
	return int(a.blockSize)
}

// Alloc returns one block, or nil when the arena cannot serve it (no
// mapping, or bump space exhausted and the free list empty). Safe for
// concurrent use.
//
//go:nosplit
func (a *Arena) Alloc() unsafe.Pointer {
	// Reuse path: pop the free-block stack.
	for {
		head := a.freeHead.Load()
		if head == 0 {
			break
		}
		next := *(*uintptr)(unsafe.Pointer(head))
		if a.freeHead.CompareAndSwap(head, next) {
			a.reused.Add(1)
			return unsafe.Pointer(head)
		}
	}

	// Fresh path: bump the cursor.
	if a.base != 0 {
		end := a.offset.Add(a.blockSize)
		if end <= a.capacity {
			return unsafe.Pointer(a.base + end - a.blockSize)
		}
	}
	a.missed.Add(1)
	return nil
}

// Free returns a block to the free list. Pointers outside the mapping are
// ignored: heap-fallback blocks belong to the garbage collector.
//
//go:nosplit
func (a *Arena) Free(p unsafe.Pointer) {
	if !a.Owns(p) {
		return
	}
	node := uintptr(p)
	for {
		head := a.freeHead.Load()
		*(*uintptr)(unsafe.Pointer(node)) = head
		if a.freeHead.CompareAndSwap(head, node) {
			return
		}
	}
}

// Owns reports whether p points into the arena mapping.
//
//go:nosplit
func (a *Arena) Owns(p unsafe.Pointer) bool {
	if a == nil || a.base == 0 {
		return false
	}
	u := uintptr(p)
	return u >= a.base && u < a.base+a.capacity
}

// Mapped reports whether the backing mapping exists.
func (a *Arena) Mapped() bool {
	return a != nil && a.base != 0
}

// Stats snapshots allocator counters.
func (a *Arena) Stats() Stats {
	if a == nil {
		return Stats{}
	}
	return Stats{
		BumpBytes: uint64(a.offset.Load()),
		Reused:    a.reused.Load(),
		Missed:    a.missed.Load(),
	}
}

// Close releases the mapping. No block handed out by this arena may be
// touched afterwards; the owning cache tears itself down first.
func (a *Arena) Close() {
	if a == nil || a.mapping == nil {
		return
	}
	m := a.mapping
	a.mapping = nil
	a.base = 0
	a.capacity = 0
	a.freeHead.Store(0)
	unmapPages(m)
}
