// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: epoch.go — Single-writer epoch-based reclamation registry
//
// Purpose:
//   - Lets lock-free readers hold value handles a concurrent writer has
//     logically evicted: retired values are freed only once no active reader
//     could still have captured a reference.
//   - Readers publish the global epoch into their own padded slot on entry
//     and zero it on exit; the writer bumps the global epoch once per write
//     and scans the slots for the reclamation watermark.
//
// Protocol:
//   - Slot value 0 means "not inside a read critical section".
//   - The global epoch starts at 1 and only grows, so 0 can never be
//     mistaken for a real epoch.
//   - Only the writer retires and reclaims; readers never touch any slot but
//     their own. The watermark scan is O(slots) and writer-only.
// ─────────────────────────────────────────────────────────────────────────────

package epoch

import (
	"sync/atomic"

	"flatlru/constants"
	"flatlru/utils"
)

// slotPad keeps each reader's active epoch on its own cache line; slots are
// written on every get, and sharing lines across readers would turn the
// hottest path in the system into a coherence storm.
type slotPad struct {
	active atomic.Uint64
	_      [constants.CacheLine - 8]byte
}

// Registry tracks the global epoch and every reader slot's active epoch.
type Registry struct {
	global atomic.Uint64
	_      [constants.CacheLine - 8]byte
	slots  []slotPad
}

// Guard marks one reader slot active; Leave must be called when the read
// critical section ends.
type Guard struct {
	r   *Registry
	tid int32
}

// NewRegistry builds a registry with the given power-of-two slot count.
func NewRegistry(slots int) *Registry {
	if !utils.IsPow2(slots) || slots > constants.MaxReaderSlots {
		panic("epoch: slot count must be a power of two ≤ " + utils.Itoa(constants.MaxReaderSlots))
	}
	r := &Registry{slots: make([]slotPad, slots)}
	r.global.Store(1)
	return r
}

// Enter publishes the current global epoch into tid's slot and returns the
// guard that undoes it.
//
//go:nosplit
func (r *Registry) Enter(tid int) Guard {
	r.slots[tid].active.Store(r.global.Load())
	return Guard{r: r, tid: int32(tid)}
}

// Leave marks the slot inactive.
//
//go:nosplit
func (g Guard) Leave() {
	g.r.slots[g.tid].active.Store(0)
}

// Current returns the global epoch.
//
//go:nosplit
func (r *Registry) Current() uint64 {
	return r.global.Load()
}

// Bump advances the global epoch, fencing "before this write" from "after
// this write" for reclamation purposes, and returns the new value.
//
//go:nosplit
func (r *Registry) Bump() uint64 {
	return r.global.Add(1)
}

// MinActive returns the reclamation watermark: the smallest epoch any
// reader is still inside, or the current global epoch when every slot is
// idle. Retired entries strictly below the watermark are unreachable.
func (r *Registry) MinActive() uint64 {
	min := r.global.Load()
	for i := range r.slots {
		e := r.slots[i].active.Load()
		if e != 0 && e < min {
			min = e
		}
	}
	return min
}

// Slots returns the registry capacity.
func (r *Registry) Slots() int {
	return len(r.slots)
}
