package cache

import (
	"bytes"
	"testing"

	"flatlru/arena"
	"flatlru/blob"
	"flatlru/constants"
)

func mustGet(t *testing.T, c Interface, key uint64) blob.Handle {
	t.Helper()
	h, ok := c.Get(key)
	if !ok {
		t.Fatalf("Get(%d) missed", key)
	}
	return h
}

// TestNewPanicsOnBadConfig rejects invalid capacity and thread bounds.
func TestNewPanicsOnBadConfig(t *testing.T) {
	bad := []Config{
		{Capacity: 0},
		{Capacity: 3},
		{Capacity: 8, MaxThreads: 3},
	}
	for _, cfg := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%+v) should panic", cfg)
				}
			}()
			_ = New(cfg)
		}()
	}
}

// TestPutGetRoundTrip stores values and reads them back through the
// lock-free path.
func TestPutGetRoundTrip(t *testing.T) {
	c := New(Config{Capacity: 16})
	defer c.Close()

	c.Put(1, []byte("one"))
	c.Put(2, []byte("two"))

	h := mustGet(t, c, 1)
	if !bytes.Equal(h.Bytes(), []byte("one")) {
		t.Fatalf("Get(1) = %q", h.Bytes())
	}
	h.Release(nil)

	if _, ok := c.Get(3); ok {
		t.Fatal("Get(3) should miss")
	}
}

// TestCapacityBound inserts far more keys than fit and checks the entry
// count never exceeds the configured bound.
func TestCapacityBound(t *testing.T) {
	c := New(Config{Capacity: 8})
	defer c.Close()

	for k := uint64(1); k <= 100; k++ {
		c.Put(k, []byte("v"))
		if c.Len() > 8 {
			t.Fatalf("Len = %d exceeds capacity 8 after put %d", c.Len(), k)
		}
	}
	if c.Len() != 8 {
		t.Fatalf("Len = %d, want full cache 8", c.Len())
	}
}

// TestEvictionPicksLRU checks insertion-order eviction at capacity two:
// with no intervening reads the oldest insert goes first.
func TestEvictionPicksLRU(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()

	c.Put(1, []byte("a"))
	c.Put(2, []byte("b"))
	c.Put(3, []byte("c")) // evicts 1

	if _, ok := c.Get(1); ok {
		t.Fatal("key 1 should have been evicted")
	}
	mustGet(t, c, 2).Release(nil)
	mustGet(t, c, 3).Release(nil)
}

// TestReadRefreshesRecency checks a get's deferred hint is applied before
// the next eviction decision: reading the older key saves it.
func TestReadRefreshesRecency(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()

	c.Put(1, []byte("a"))
	c.Put(2, []byte("b"))
	mustGet(t, c, 1).Release(nil) // hint: 1 is hot
	c.Put(3, []byte("c"))         // drain hints, then evict -> 2 goes

	mustGet(t, c, 1).Release(nil)
	if _, ok := c.Get(2); ok {
		t.Fatal("key 2 should have been evicted after 1 was read")
	}
	mustGet(t, c, 3).Release(nil)
}

// TestQuietUpdateKeepsBlock verifies re-putting an identical payload only
// refreshes recency: the stored block is not reallocated.
func TestQuietUpdateKeepsBlock(t *testing.T) {
	c := New(Config{Capacity: 4})
	defer c.Close()

	c.Put(5, []byte("same"))
	h1 := mustGet(t, c, 5)
	c.Put(5, []byte("same"))
	h2 := mustGet(t, c, 5)

	if h1.Raw() != h2.Raw() {
		t.Fatal("identical put must not replace the stored block")
	}
	h1.Release(nil)
	h2.Release(nil)

	// And the quiet path still counts as a touch for eviction purposes.
	c2 := New(Config{Capacity: 2})
	defer c2.Close()
	c2.Put(1, []byte("a"))
	c2.Put(2, []byte("b"))
	c2.Put(1, []byte("a")) // quiet: promotes 1
	c2.Put(3, []byte("c")) // evicts 2
	if _, ok := c2.Get(2); ok {
		t.Fatal("key 2 should have been evicted after the quiet touch of 1")
	}
	mustGet(t, c2, 1).Release(nil)
}

// TestUpdateReplacesValue checks a differing payload for an existing key
// replaces the value without changing the entry count.
func TestUpdateReplacesValue(t *testing.T) {
	c := New(Config{Capacity: 4})
	defer c.Close()

	c.Put(9, []byte("v1"))
	c.Put(9, []byte("v2"))
	if c.Len() != 1 {
		t.Fatalf("Len = %d after update, want 1", c.Len())
	}
	h := mustGet(t, c, 9)
	if !bytes.Equal(h.Bytes(), []byte("v2")) {
		t.Fatalf("Get(9) = %q, want v2", h.Bytes())
	}
	h.Release(nil)
}

// TestLossyHintsAreHarmless floods the hint channels with reads and checks
// the cache stays consistent: dropped hints may stale the order but never
// break lookups.
func TestLossyHintsAreHarmless(t *testing.T) {
	c := New(Config{Capacity: 4})
	defer c.Close()

	c.Put(1, []byte("a"))
	for i := 0; i < 1000; i++ { // far beyond any hint channel capacity
		mustGet(t, c, 1).Release(nil)
	}
	c.Put(2, []byte("b"))
	mustGet(t, c, 1).Release(nil)
	mustGet(t, c, 2).Release(nil)
}

// TestHandleOutlivesEviction verifies a retained handle keeps its payload
// intact while the entry is evicted and its block retired: the epoch
// reclaimer must not recycle memory a caller still references.
func TestHandleOutlivesEviction(t *testing.T) {
	a := arena.New(constants.BlockSize, 1)
	defer a.Close()

	c := New(Config{Capacity: 2, Arena: a})
	c.Put(1, []byte("keepsake"))
	held := mustGet(t, c, 1)

	// Overwrite and churn enough to evict key 1 and run retirement sweeps.
	for k := uint64(2); k < 2+4*uint64(constants.RetireThreshold); k++ {
		c.Put(k, []byte("filler-value"))
	}
	if _, ok := c.Get(1); ok {
		t.Fatal("key 1 should have been evicted by the churn")
	}

	if !bytes.Equal(held.Bytes(), []byte("keepsake")) {
		t.Fatalf("retained payload corrupted: %q", held.Bytes())
	}
	held.Release(a)
	c.Close()
}

// TestCloseReleasesEverything drains the cache and returns every arena
// block, leaving the free list able to serve the whole capacity again.
func TestCloseReleasesEverything(t *testing.T) {
	a := arena.New(constants.BlockSize, 1)
	defer a.Close()
	if !a.Mapped() {
		t.Skip("no mapping available in this environment")
	}

	c := New(Config{Capacity: 8, Arena: a})
	for k := uint64(1); k <= 8; k++ {
		c.Put(k, []byte("v"))
	}
	c.Close()

	before := a.Stats().Reused
	h := blob.New(a, []byte("after"))
	if a.Stats().Reused != before+1 {
		t.Fatal("closed cache left arena blocks unreleased")
	}
	h.Release(a)
}

// TestName pins the diagnostic identifiers the harness records.
func TestName(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()
	if c.Name() != "flatlru" {
		t.Fatalf("Name = %q", c.Name())
	}
}
