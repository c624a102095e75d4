// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ FLAT LRU CACHE CONTROLLER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Wait-Free-Read / Serialized-Write LRU Orchestration
//
// Description:
//   Bounded-capacity LRU cache for many concurrent readers and few writers. Reads never take a
//   lock: they probe the flat map under the seqlock contract, post a best-effort recency hint to
//   their thread's SPSC channel, and return a reference-counted handle kept alive by the epoch
//   reclaimer. Writes serialize on one spin lock, drain pending recency hints, evict, install,
//   and retire replaced values for deferred reclamation.
//
// Data flow:
//   get: enter epoch → lock-free probe → push {idx,gen} hint + set dirty bit → retain handle
//   put: lock → drain dirty channels → lookup/evict/install → retire old value → bump epoch
//
// Failure semantics:
//   Full hint channel: hint dropped (staler LRU order, never an error). Stale hint at drain
//   time: ignored. Seqlock race: reported as a miss. Capacity pressure: eviction, never error.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package cache

import (
	"math/bits"
	"runtime"
	"sync/atomic"

	"flatlru/arena"
	"flatlru/blob"
	"flatlru/constants"
	"flatlru/epoch"
	"flatlru/flatmap"
	"flatlru/ring8"
	"flatlru/utils"
)

// Interface is the surface every cache variant satisfies. Get's handle must
// be Released by the caller once the value is no longer needed. Close may
// only run after all readers and writers have stopped.
type Interface interface {
	Get(key uint64) (blob.Handle, bool)
	Put(key uint64, value []byte)
	Name() string
	Len() int
	Close()
}

// Config carries FlatLRU construction parameters.
type Config struct {
	// Capacity is the logical entry bound; power of two ≥ 1.
	Capacity int
	// MaxThreads bounds the reader-slot registries (channels + epochs).
	// Clamped up to cover GOMAXPROCS and capped at 64 (one dirty-mask bit
	// per slot). Power of two.
	MaxThreads int
	// Arena backs value payloads; nil sends every value to the heap.
	Arena *arena.Arena
	// Hash mixes keys for slot placement and shard routing; nil selects
	// the default Mix64 avalanche.
	Hash func(uint64) uint64
}

// retiredEntry defers one replaced/evicted value until the epoch watermark
// passes its retirement epoch.
type retiredEntry struct {
	h     blob.Handle
	epoch uint64
}

// FlatLRU is the single-shard cache controller.
type FlatLRU struct {
	collection *flatmap.Map
	epochs     *epoch.Registry
	buffers    []*ring8.Ring // one SPSC hint channel per reader slot
	dirty      atomic.Uint64 // bit i set ⇒ buffers[i] has unconsumed hints
	lock       spinLock
	retired    []retiredEntry // writer-owned
	arena      *arena.Arena
	tidMask    int
	capacity   int
}

var _ Interface = (*FlatLRU)(nil)

// New builds a FlatLRU from cfg. Panics on invalid sizing — configuration
// bugs are fatal, not recoverable.
func New(cfg Config) *FlatLRU {
	if !utils.IsPow2(cfg.Capacity) {
		panic("cache: capacity must be a power of two ≥ 1")
	}
	if cfg.MaxThreads != 0 && !utils.IsPow2(cfg.MaxThreads) {
		panic("cache: MaxThreads must be a power of two")
	}

	slots := readerSlots(cfg.MaxThreads)

	// Channels carry roughly a quarter of the per-thread share of the
	// capacity; recency hints are approximate by design, so small is fine.
	ringSize := utils.NextPow2(cfg.Capacity / (4 * slots))
	if ringSize < constants.MinRingSize {
		ringSize = constants.MinRingSize
	}

	c := &FlatLRU{
		collection: flatmap.New(cfg.Capacity, cfg.Hash),
		epochs:     epoch.NewRegistry(slots),
		buffers:    make([]*ring8.Ring, slots),
		arena:      cfg.Arena,
		tidMask:    slots - 1,
		capacity:   cfg.Capacity,
	}
	for i := range c.buffers {
		c.buffers[i] = ring8.New(ringSize)
	}
	return c
}

// readerSlots resolves the effective reader-slot count: at least the
// requested bound, at least GOMAXPROCS (a pinned reader's slot id is its P
// id, and two live Ps must never alias one SPSC channel), at most the
// dirty-mask width.
func readerSlots(requested int) int {
	n := requested
	if p := runtime.GOMAXPROCS(0); p > n {
		n = p
	}
	n = utils.NextPow2(n)
	if n > constants.MaxReaderSlots {
		n = constants.MaxReaderSlots
	}
	return n
}

// ═══════════════════════════════════════════════════════════════════════════
// READ PATH — no lock, no blocking, no unbounded retries
// ═══════════════════════════════════════════════════════════════════════════

// Get returns a retained handle for key, or ok=false on a miss. A seqlock
// race with a concurrent writer degrades to a miss. The handle stays valid
// for as long as the caller holds it, even across a concurrent eviction of
// the key; the caller must Release it.
func (c *FlatLRU) Get(key uint64) (blob.Handle, bool) {
	tid := runtimeProcPin() & c.tidMask
	guard := c.epochs.Enter(tid)

	h, idx, gen, ok := c.collection.GetLockless(key)
	if ok {
		// Retain while the epoch guard proves the block cannot have been
		// recycled; after this the handle lives on its own reference.
		h.Retain()
		c.markAccess(tid, idx, gen)
	}

	guard.Leave()
	runtimeProcUnpin()

	if !ok {
		return blob.Handle{}, false
	}
	return h, true
}

// markAccess posts a best-effort recency hint and flags this reader slot in
// the dirty mask. A full channel drops the hint silently.
//
//go:nosplit
func (c *FlatLRU) markAccess(tid int, idx, gen uint32) {
	if c.buffers[tid].Push(uint64(idx)<<32 | uint64(gen)) {
		bit := uint64(1) << tid
		if c.dirty.Load()&bit == 0 { // test before test-and-set: keep the line shared
			c.dirty.Or(bit)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// WRITE PATH — serialized, amortizes recency bookkeeping
// ═══════════════════════════════════════════════════════════════════════════

// Put inserts or updates key. Equal payloads take the quiet-update path:
// recency refresh only, no generation bump, no retirement, no allocation.
func (c *FlatLRU) Put(key uint64, value []byte) {
	// Quiet-update probe in its own short critical section, before paying
	// for the payload copy.
	c.lock.lock()
	if h, idx, _ := c.collection.Lookup(key); !h.IsNil() && h.EqualBytes(value) {
		c.collection.MoveToFront(idx)
		c.lock.unlock()
		return
	}
	c.lock.unlock()

	fresh := blob.New(c.arena, value) // allocate outside the critical section

	c.lock.lock()
	c.epochs.Bump()
	if c.dirty.Load() != 0 {
		c.applyUpdates()
	}
	c.commitPut(key, fresh)
	if len(c.retired) >= constants.RetireThreshold {
		c.cleanupRetired()
	}
	c.lock.unlock()
}

// commitPut is the insert-or-update core, including eviction. Critical
// section only.
func (c *FlatLRU) commitPut(key uint64, fresh blob.Handle) {
	h, idx, _ := c.collection.Lookup(key)

	if !h.IsNil() {
		old := c.collection.UpdateSlot(idx, fresh)
		c.retired = append(c.retired, retiredEntry{old, c.epochs.Current()})
	} else {
		if c.collection.Len() >= c.capacity {
			tail := c.collection.Tail()
			if old := c.collection.EraseIndex(tail); !old.IsNil() {
				c.retired = append(c.retired, retiredEntry{old, c.epochs.Current()})
			}
			idx = c.collection.AssignSlot(key)
		}
		c.collection.EmplaceAt(idx, key, fresh)
	}

	c.collection.MoveToFront(idx)
}

// applyUpdates drains every dirty recency channel into the map. Hints whose
// slot generation no longer matches are dropped — the slot was mutated or
// reused for another key since the reader touched it.
func (c *FlatLRU) applyUpdates() {
	mask := c.dirty.Swap(0)
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		mask &= mask - 1
		c.drainBuffer(i)
	}
	if len(c.retired) > 0 {
		c.cleanupRetired()
	}
}

//go:nosplit
func (c *FlatLRU) drainBuffer(i int) {
	buf := c.buffers[i]
	for {
		v, ok := buf.Pop()
		if !ok {
			return
		}
		idx, gen := uint32(v>>32), uint32(v)
		if c.collection.ValidGen(idx, gen) {
			c.collection.MoveToFront(idx)
		}
	}
}

// cleanupRetired frees every retired value whose retirement epoch is
// strictly below the watermark: no active reader can still have captured a
// reference to it.
func (c *FlatLRU) cleanupRetired() {
	min := c.epochs.MinActive()
	kept := c.retired[:0]
	for _, e := range c.retired {
		if e.epoch < min {
			e.h.Release(c.arena)
		} else {
			kept = append(kept, e)
		}
	}
	c.retired = kept
}

// ═══════════════════════════════════════════════════════════════════════════
// DIAGNOSTICS & TEARDOWN
// ═══════════════════════════════════════════════════════════════════════════

// Name identifies the configured variant for diagnostics and benchmarks.
func (c *FlatLRU) Name() string { return "flatlru" }

// Len returns the current entry count. Unsynchronized diagnostic read.
func (c *FlatLRU) Len() int { return c.collection.Len() }

// Close releases every live and retired value. The caller guarantees no
// concurrent readers or writers remain.
func (c *FlatLRU) Close() {
	c.lock.lock()
	c.applyUpdates()
	c.collection.Drain(func(h blob.Handle) {
		h.Release(c.arena)
	})
	for _, e := range c.retired {
		e.h.Release(c.arena)
	}
	c.retired = nil
	c.lock.unlock()
}
