// atomic_fallback.go
//
// Acquire/release shims over sync/atomic. Go's atomics are sequentially
// consistent, which is strictly stronger than the ring needs; the named
// wrappers keep the protocol readable at the call sites.

package ring8

import "sync/atomic"

//go:nosplit
func loadAcquireUint64(p *uint64) uint64 {
	return atomic.LoadUint64(p)
}

//go:nosplit
func storeReleaseUint64(p *uint64, v uint64) {
	atomic.StoreUint64(p, v)
}
