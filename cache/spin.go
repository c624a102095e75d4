// spin.go
//
// Writer serialization. The critical section is short and allocation-free
// (probe, pointer swaps, index surgery), so a spin lock with relax hints
// beats parking; after WriteSpinLimit failed attempts the waiter yields its
// thread and starts over.

package cache

import (
	"runtime"
	"sync/atomic"

	"flatlru/constants"
)

type spinLock struct {
	flag atomic.Uint32
}

//go:nosplit
func (l *spinLock) lock() {
	spins := 0
	for !l.flag.CompareAndSwap(0, 1) {
		spins++
		if spins >= constants.WriteSpinLimit {
			runtime.Gosched()
			spins = 0
		} else {
			cpuRelax()
		}
	}
}

//go:nosplit
func (l *spinLock) unlock() {
	l.flag.Store(0)
}
