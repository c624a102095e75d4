// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ RECENCY-LINKED FLAT MAP
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Open-Addressing Table With Intrusive LRU Ordering
//
// Description:
//   Fixed-capacity open-addressing hash table threaded with an index-based doubly linked list
//   giving global recency order. One owner (the cache writer) holds exclusive mutation rights;
//   lock-free readers are served by GetLockless under a per-slot sequence-lock discipline.
//
// Design principles:
//   - Table size is exactly 2×Capacity (0.5 load factor), power-of-2, masked probing.
//     Tombstoned slots are reused on insert but never become Empty again, so a probe always
//     terminates at an Empty slot before wrapping the table.
//   - Per-slot generation counter: even = stable/readable, odd = mutation in progress.
//     Every mutation of a slot's key or value is bracketed by two increments.
//   - Recency links are array indices into the same table: O(1) reordering with zero
//     per-node allocation. NullIdx terminates the list.
//
// Safety model:
//   - Lookup / AssignSlot / EmplaceAt / UpdateSlot / EraseIndex / MoveToFront require the
//     owner's exclusive access. GetLockless and ValidGen are safe concurrently with them.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package flatmap

import (
	"sync/atomic"

	"flatlru/blob"
	"flatlru/constants"
	"flatlru/utils"
)

// NullIdx is the sentinel for list ends and invalid slot indices.
const NullIdx = ^uint32(0)

// Slot states. A Deleted slot is a tombstone: probe sequences pass through
// it, inserts may reclaim it, and it never reverts to Empty.
const (
	slotEmpty uint32 = iota
	slotOccupied
	slotDeleted
)

// metaEntry is the hot half of a slot: 32 bytes, two entries per cache line.
//
//	gen/state — seqlock word and slot state (atomic, shared with readers)
//	key       — lookup key (atomic: readers probe it without the lock)
//	next/prev — intrusive recency links (writer-only)
type metaEntry struct {
	gen   atomic.Uint32
	state atomic.Uint32
	key   atomic.Uint64
	next  uint32
	prev  uint32
	_     [8]byte
}

// Map is the recency-linked flat map. Values are held as raw blob block
// pointers so a reader's racing copy is a single untorn word.
type Map struct {
	meta     []metaEntry
	vals     []atomic.Pointer[blob.Block]
	mask     uint32
	hash     func(uint64) uint64
	head     uint32 // most recently used
	tail     uint32 // least recently used, the eviction candidate
	size     int
	capacity int
}

// New builds a map for capacity entries (power of two ≥ 1); the physical
// table is twice that. hash may be nil for the default Mix64 avalanche.
func New(capacity int, hash func(uint64) uint64) *Map {
	if !utils.IsPow2(capacity) {
		panic("flatmap: capacity must be a power of two ≥ 1")
	}
	if hash == nil {
		hash = utils.Mix64
	}

	table := capacity * 2 // 0.5 load factor keeps every probe finite
	m := &Map{
		meta:     make([]metaEntry, table),
		vals:     make([]atomic.Pointer[blob.Block], table),
		mask:     uint32(table - 1),
		hash:     hash,
		head:     NullIdx,
		tail:     NullIdx,
		capacity: capacity,
	}
	for i := range m.meta {
		m.meta[i].next = NullIdx
		m.meta[i].prev = NullIdx
	}
	return m
}

// homeIdx derives the probe start from the high half of the mixed key; the
// low half is reserved for shard routing so sharded deployments do not feed
// every shard the same slot-index bits.
//
//go:nosplit
func (m *Map) homeIdx(key uint64) uint32 {
	return uint32(m.hash(key)>>32) & m.mask
}

// ═══════════════════════════════════════════════════════════════════════════
// WRITER-SIDE OPERATIONS (exclusive access)
// ═══════════════════════════════════════════════════════════════════════════

// Lookup probes for key under exclusive access, so no generation validation
// is needed. On a hit it returns the value handle, the slot index, and the
// slot generation. On a miss the handle is nil and idx is the insertion
// target: the first tombstone seen, else the terminating Empty slot.
func (m *Map) Lookup(key uint64) (blob.Handle, uint32, uint32) {
	idx := m.homeIdx(key)
	firstDel := NullIdx

	for range m.meta {
		meta := &m.meta[idx]
		switch meta.state.Load() {
		case slotEmpty:
			if firstDel != NullIdx {
				return blob.Handle{}, firstDel, 0
			}
			return blob.Handle{}, idx, 0
		case slotDeleted:
			if firstDel == NullIdx {
				firstDel = idx
			}
		case slotOccupied:
			if meta.key.Load() == key {
				return blob.Wrap(m.vals[idx].Load()), idx, meta.gen.Load()
			}
		}
		idx = (idx + 1) & m.mask
	}

	// Reachable only if every slot is Occupied or Deleted, which the 0.5
	// load factor rules out. A hit here is a configuration bug.
	panic("flatmap: probe exhausted table, load-factor invariant violated")
}

// AssignSlot probes for an insertion slot for key, preferring the first
// tombstone on the way. Used after an eviction freed capacity.
func (m *Map) AssignSlot(key uint64) uint32 {
	idx := m.homeIdx(key)
	firstDel := NullIdx

	for range m.meta {
		switch m.meta[idx].state.Load() {
		case slotEmpty:
			if firstDel != NullIdx {
				return firstDel
			}
			return idx
		case slotDeleted:
			if firstDel == NullIdx {
				firstDel = idx
			}
		}
		idx = (idx + 1) & m.mask
	}

	panic("flatmap: probe exhausted table, load-factor invariant violated")
}

// EmplaceAt installs key/value into slot idx under the odd/even generation
// bracket. The slot must be Empty or Deleted. The entry is not yet linked
// into the recency list; the caller follows up with MoveToFront.
func (m *Map) EmplaceAt(idx uint32, key uint64, h blob.Handle) {
	meta := &m.meta[idx]

	meta.gen.Add(1) // odd: readers treat the slot as in-flux
	meta.key.Store(key)
	m.vals[idx].Store(h.Raw())
	meta.state.Store(slotOccupied)
	meta.gen.Add(1) // even: publish

	m.size++
}

// UpdateSlot swaps the value of an Occupied slot under the generation
// bracket and returns the previous handle for retirement.
func (m *Map) UpdateSlot(idx uint32, h blob.Handle) blob.Handle {
	meta := &m.meta[idx]

	meta.gen.Add(1)
	old := m.vals[idx].Swap(h.Raw())
	meta.gen.Add(1)

	return blob.Wrap(old)
}

// EraseIndex tombstones slot idx: detaches it from the recency list, clears
// the value and returns the old handle for retirement. The generation still
// advances by two — the slot logically changed even though it only became
// a tombstone — which also invalidates any recency hint addressed to it.
func (m *Map) EraseIndex(idx uint32) blob.Handle {
	if idx == NullIdx {
		return blob.Handle{}
	}
	meta := &m.meta[idx]
	if meta.state.Load() != slotOccupied {
		return blob.Handle{}
	}

	if m.linked(idx) {
		m.detach(idx)
	}

	meta.gen.Add(1)
	old := m.vals[idx].Swap(nil)
	meta.state.Store(slotDeleted)
	meta.gen.Add(1)

	m.size--
	return blob.Wrap(old)
}

// ValidGen reports whether slot idx is Occupied at exactly generation gen.
// This is the staleness check for deferred recency hints: a reused or
// mutated slot fails it and the hint is silently dropped.
//
//go:nosplit
func (m *Map) ValidGen(idx, gen uint32) bool {
	if idx > m.mask {
		return false
	}
	meta := &m.meta[idx]
	return meta.state.Load() == slotOccupied && meta.gen.Load() == gen
}

// Drain erases every occupied slot, handing each value handle to fn.
// Teardown helper; requires exclusive access and no live readers.
func (m *Map) Drain(fn func(blob.Handle)) {
	for idx := range m.meta {
		if m.meta[idx].state.Load() == slotOccupied {
			if old := m.EraseIndex(uint32(idx)); !old.IsNil() {
				fn(old)
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// READER-SIDE OPERATION (lock-free)
// ═══════════════════════════════════════════════════════════════════════════

// GetLockless probes for key without any lock. For every candidate slot the
// generation is read before and after the value copy; any mismatch or odd
// parity invalidates the attempt and is reported as a miss. The probe is
// bounded by the table size, the odd-generation wait by a fixed spin limit,
// so the read path never blocks.
func (m *Map) GetLockless(key uint64) (h blob.Handle, idx uint32, gen uint32, ok bool) {
	i := m.homeIdx(key)

	for range m.meta {
		meta := &m.meta[i]

		gen1 := meta.gen.Load()
		if gen1&1 != 0 {
			gen1 = waitEven(meta)
			if gen1&1 != 0 {
				return blob.Handle{}, NullIdx, 0, false // writer stalled on the slot: degrade to a miss
			}
		}

		state := meta.state.Load()
		if state == slotEmpty {
			return blob.Handle{}, NullIdx, 0, false
		}
		if state == slotOccupied && meta.key.Load() == key {
			p := m.vals[i].Load()
			if meta.gen.Load() != gen1 {
				return blob.Handle{}, NullIdx, 0, false // raced a mutation: the copy is untrusted
			}
			if p == nil {
				return blob.Handle{}, NullIdx, 0, false
			}
			return blob.Wrap(p), i, gen1, true
		}

		i = (i + 1) & m.mask
	}

	return blob.Handle{}, NullIdx, 0, false
}

// waitEven re-reads the generation for a bounded number of spins, returning
// the last observed value (possibly still odd).
//
//go:nosplit
func waitEven(meta *metaEntry) uint32 {
	for spin := 0; spin < constants.ReadSpinLimit; spin++ {
		g := meta.gen.Load()
		if g&1 == 0 {
			return g
		}
	}
	return meta.gen.Load()
}

// ═══════════════════════════════════════════════════════════════════════════
// ACCESSORS
// ═══════════════════════════════════════════════════════════════════════════

// Len returns the number of Occupied slots.
//
//go:nosplit
func (m *Map) Len() int { return m.size }

// Capacity returns the logical capacity (half the physical table).
//
//go:nosplit
func (m *Map) Capacity() int { return m.capacity }

// Head returns the most-recently-used slot index, or NullIdx when empty.
//
//go:nosplit
func (m *Map) Head() uint32 { return m.head }

// Tail returns the least-recently-used slot index — the eviction candidate —
// or NullIdx when empty.
//
//go:nosplit
func (m *Map) Tail() uint32 { return m.tail }
