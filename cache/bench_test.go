package cache

import (
	"testing"

	"flatlru/arena"
	"flatlru/constants"
	"flatlru/utils"
)

func benchFill(c Interface, keys uint64) {
	v := make([]byte, 64)
	for k := uint64(1); k <= keys; k++ {
		c.Put(k, v)
	}
}

// BenchmarkGetHit measures the single-goroutine lock-free hit path,
// including the hint push and handle retain/release pair.
func BenchmarkGetHit(b *testing.B) {
	c := New(Config{Capacity: 1024})
	defer c.Close()
	benchFill(c, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, ok := c.Get(uint64(i)%1024 + 1)
		if ok {
			h.Release(nil)
		}
	}
}

// BenchmarkGetHitParallel measures read scaling: the whole point of the
// seqlock read path is that this does not collapse under RunParallel.
func BenchmarkGetHitParallel(b *testing.B) {
	c := New(Config{Capacity: 1024})
	defer c.Close()
	benchFill(c, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		s := uint64(1)
		for pb.Next() {
			s = utils.Mix64(s + 1)
			if h, ok := c.Get(s%1024 + 1); ok {
				h.Release(nil)
			}
		}
	})
}

// BenchmarkMutexGetHitParallel is the baseline the parallel number above is
// read against.
func BenchmarkMutexGetHitParallel(b *testing.B) {
	c := NewMutex(1024, nil)
	defer c.Close()
	benchFill(c, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		s := uint64(1)
		for pb.Next() {
			s = utils.Mix64(s + 1)
			if h, ok := c.Get(s%1024 + 1); ok {
				h.Release(nil)
			}
		}
	})
}

// BenchmarkPutChurn measures the serialized write path with eviction on
// every insert, values drawn from the arena.
func BenchmarkPutChurn(b *testing.B) {
	a := arena.New(constants.BlockSize, 4)
	defer a.Close()
	c := New(Config{Capacity: 1024, Arena: a})
	defer c.Close()

	v := make([]byte, 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(uint64(i)+1, v)
	}
}

// BenchmarkShardedGetHitParallel measures the sharded wrapper's read path.
func BenchmarkShardedGetHitParallel(b *testing.B) {
	c := NewSharded(ShardedConfig{TotalCapacity: 1024, Shards: 16})
	defer c.Close()
	benchFill(c, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		s := uint64(3)
		for pb.Next() {
			s = utils.Mix64(s + 1)
			if h, ok := c.Get(s%1024 + 1); ok {
				h.Release(nil)
			}
		}
	})
}
