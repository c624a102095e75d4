// procid.go
//
// Reader identity. Each read needs a stable, bounded slot index for its
// recency channel and epoch slot. We use the pinned P id — the same
// mechanism sync.Pool uses for per-P sharding: while a goroutine is pinned,
// no other goroutine runs on that P, so the slot (and its single-producer
// channel) is exclusively ours for the duration of the read. The id is
// masked into the registry range by the caller.

package cache

import _ "unsafe"

//go:linkname runtimeProcPin runtime.procPin
func runtimeProcPin() int

//go:linkname runtimeProcUnpin runtime.procUnpin
func runtimeProcUnpin()
