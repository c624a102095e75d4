package blob

import (
	"bytes"
	"testing"
	"unsafe"

	"flatlru/arena"
	"flatlru/constants"
)

// TestHeapRoundTrip builds a handle without an arena and checks the payload
// survives the copy.
func TestHeapRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox")
	h := New(nil, payload)

	if h.IsNil() {
		t.Fatal("fresh handle must not be nil")
	}
	if h.Len() != len(payload) {
		t.Fatalf("Len = %d, want %d", h.Len(), len(payload))
	}
	if !bytes.Equal(h.Bytes(), payload) {
		t.Fatalf("Bytes = %q, want %q", h.Bytes(), payload)
	}

	// The handle owns a copy: mutating the source must not leak through.
	payload[0] = 'X'
	if h.Bytes()[0] == 'X' {
		t.Fatal("handle aliases the caller's slice")
	}
	h.Release(nil)
}

// TestZeroHandle checks the zero value behaves as the null handle.
func TestZeroHandle(t *testing.T) {
	var h Handle
	if !h.IsNil() {
		t.Fatal("zero handle must be nil")
	}
	if h.EqualBytes([]byte{}) {
		t.Fatal("nil handle equals nothing")
	}
	h.Release(nil) // must be a no-op
}

// TestArenaPlacement verifies small payloads land in arena blocks and that
// the final Release returns the block to the free list for reuse.
func TestArenaPlacement(t *testing.T) {
	a := arena.New(constants.BlockSize, 1)
	defer a.Close()
	if !a.Mapped() {
		t.Skip("no mapping available in this environment")
	}

	h := New(a, []byte("small"))
	if !a.Owns(unsafe.Pointer(h.Raw())) {
		t.Fatal("small payload should come from the arena")
	}

	block := unsafe.Pointer(h.Raw())
	h.Release(a)

	h2 := New(a, []byte("again"))
	if unsafe.Pointer(h2.Raw()) != block {
		t.Fatal("released block was not reused")
	}
	h2.Release(a)
}

// TestOversizedFallsToHeap checks payloads that cannot fit a block (header
// included) bypass the arena entirely.
func TestOversizedFallsToHeap(t *testing.T) {
	a := arena.New(constants.BlockSize, 1)
	defer a.Close()

	big := make([]byte, constants.BlockSize) // header + payload > BlockSize
	for i := range big {
		big[i] = byte(i)
	}
	h := New(a, big)
	if a.Owns(unsafe.Pointer(h.Raw())) {
		t.Fatal("oversized payload must not come from the arena")
	}
	if !bytes.Equal(h.Bytes(), big) {
		t.Fatal("oversized payload corrupted")
	}
	h.Release(a)
}

// TestRetainDefersFree checks the block is freed only when the last
// reference drops, the property the epoch reclaimer depends on.
func TestRetainDefersFree(t *testing.T) {
	a := arena.New(constants.BlockSize, 1)
	defer a.Close()
	if !a.Mapped() {
		t.Skip("no mapping available in this environment")
	}

	h := New(a, []byte("shared"))
	h.Retain() // refs = 2

	h.Release(a) // refs = 1: block must stay out of the free list
	if st := a.Stats(); st.Reused != 0 {
		t.Fatal("block freed while a reference was live")
	}
	probe := New(a, []byte("probe"))
	if unsafe.Pointer(probe.Raw()) == unsafe.Pointer(h.Raw()) {
		t.Fatal("live block handed out twice")
	}
	probe.Release(a)

	if !bytes.Equal(h.Bytes(), []byte("shared")) {
		t.Fatal("payload corrupted while retained")
	}
	h.Release(a) // refs = 0: now it may recycle

	next := New(a, []byte("reuse"))
	if st := a.Stats(); st.Reused < 1 {
		t.Fatalf("expected free-list reuse after final release, stats %+v", st)
	}
	next.Release(a)
}

// TestEqualBytes exercises the quiet-update comparison.
func TestEqualBytes(t *testing.T) {
	h := New(nil, []byte("abc"))
	defer h.Release(nil)

	if !h.EqualBytes([]byte("abc")) {
		t.Fatal("equal payloads reported unequal")
	}
	if h.EqualBytes([]byte("abd")) || h.EqualBytes([]byte("ab")) {
		t.Fatal("unequal payloads reported equal")
	}
}

// TestWrapRaw checks the raw pointer round-trips through a value slot.
func TestWrapRaw(t *testing.T) {
	h := New(nil, []byte{1, 2, 3})
	defer h.Release(nil)

	w := Wrap(h.Raw())
	if w.Raw() != h.Raw() || !bytes.Equal(w.Bytes(), h.Bytes()) {
		t.Fatal("Wrap(Raw()) must alias the same block")
	}
}
