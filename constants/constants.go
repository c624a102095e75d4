// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Global cache tunables
//
// Purpose:
//   - Defines compile-time constants shared by the flat map, the recency
//     transport, the epoch reclaimer and the value arena.
//   - Sizing follows power-of-2 alignment so every index computation stays a
//     single mask instruction.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ──────────────────────────── Memory Geometry ──────────────────────────────

const (
	// CacheLine is the coherence granule assumed throughout the repository.
	// Padding structs to this size keeps independently-mutated fields from
	// invalidating each other across cores (false sharing).
	CacheLine = 64

	// HugePageSize is the huge page unit requested from the OS for the
	// value arena. 2 MiB is the ubiquitous x86-64 huge page size.
	HugePageSize = 2 << 20

	// DefaultArenaPages sizes the value arena at 64 huge pages = 128 MiB.
	// Enough for several hundred thousand fixed blocks while staying
	// container friendly; exhaustion degrades to heap allocation, never to
	// failure.
	DefaultArenaPages = 64

	// BlockSize is the fixed arena block handed to every cached value.
	// 256 bytes holds the 16-byte blob header plus typical payloads, and
	// packs four blocks per 1 KiB with zero external fragmentation.
	BlockSize = 256
)

// ─────────────────────────── Spin Discipline ───────────────────────────────

const (
	// ReadSpinLimit bounds how many relax hints a lock-free reader spends
	// waiting for an odd (write-in-progress) generation before degrading to
	// a miss. Keeps the read path wait-free under pathological scheduling.
	ReadSpinLimit = 64

	// WriteSpinLimit bounds busy-wait iterations on the write lock before
	// the writer yields its thread. Writer critical sections are short and
	// allocation-free, so the lock is almost always acquired inside this
	// window.
	WriteSpinLimit = 2048
)

// ─────────────────────────── Reclamation Policy ────────────────────────────

const (
	// RetireThreshold is the retired-value backlog that forces an epoch
	// cleanup pass inside the next put. Cleanup also runs opportunistically
	// after every hint drain, so this is a ceiling, not a schedule.
	RetireThreshold = 64

	// MaxReaderSlots caps the per-thread channel/epoch registries. The
	// dirty bitmask is a single 64-bit word, one bit per reader slot, so
	// the bound is structural: reader ids are masked into this range.
	MaxReaderSlots = 64

	// MinRingSize is the floor for a recency channel. Channels are sized
	// Capacity/(4×MaxThreads) and rounded to a power of two; tiny caches
	// still get a usable two-slot ring.
	MinRingSize = 2
)
