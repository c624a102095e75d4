package cache

import (
	"bytes"
	"sync"
	"testing"
)

// TestMutexRoundTrip covers the baseline's basic store/load behaviour.
func TestMutexRoundTrip(t *testing.T) {
	c := NewMutex(4, nil)
	defer c.Close()

	c.Put(1, []byte("one"))
	h := mustGet(t, c, 1)
	if !bytes.Equal(h.Bytes(), []byte("one")) {
		t.Fatalf("Get(1) = %q", h.Bytes())
	}
	h.Release(nil)

	if _, ok := c.Get(2); ok {
		t.Fatal("Get(2) should miss")
	}
	if c.Name() != "mutexlru" {
		t.Fatalf("Name = %q", c.Name())
	}
}

// TestMutexEviction checks LRU victim selection, including get-driven
// promotion (immediate in the baseline, no deferred hints).
func TestMutexEviction(t *testing.T) {
	c := NewMutex(2, nil)
	defer c.Close()

	c.Put(1, []byte("a"))
	c.Put(2, []byte("b"))
	mustGet(t, c, 1).Release(nil)
	c.Put(3, []byte("c")) // evicts 2

	if _, ok := c.Get(2); ok {
		t.Fatal("key 2 should have been evicted")
	}
	mustGet(t, c, 1).Release(nil)
	mustGet(t, c, 3).Release(nil)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

// TestMutexQuietUpdate re-puts an identical payload and expects the stored
// block to survive, same contract as the flat variant.
func TestMutexQuietUpdate(t *testing.T) {
	c := NewMutex(4, nil)
	defer c.Close()

	c.Put(7, []byte("same"))
	h1 := mustGet(t, c, 7)
	c.Put(7, []byte("same"))
	h2 := mustGet(t, c, 7)
	if h1.Raw() != h2.Raw() {
		t.Fatal("identical put must not replace the stored block")
	}
	h1.Release(nil)
	h2.Release(nil)

	c.Put(7, []byte("changed"))
	h3 := mustGet(t, c, 7)
	if !bytes.Equal(h3.Bytes(), []byte("changed")) {
		t.Fatalf("Get(7) = %q, want changed", h3.Bytes())
	}
	h3.Release(nil)
}

// TestMutexConcurrentSmoke runs mixed readers and writers under the lock to
// catch refcount races the -race detector would flag.
func TestMutexConcurrentSmoke(t *testing.T) {
	c := NewMutex(32, nil)
	defer c.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			for i := uint64(0); i < 5000; i++ {
				key := (seed+i)%64 + 1
				if i%3 == 0 {
					c.Put(key, []byte{byte(key)})
				} else if h, ok := c.Get(key); ok {
					if h.Bytes()[0] != byte(key) {
						t.Errorf("key %d: wrong payload", key)
					}
					h.Release(nil)
				}
			}
		}(uint64(w) * 17)
	}
	wg.Wait()
}
