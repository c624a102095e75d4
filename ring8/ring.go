// ring.go
//
// Lock-free single-producer/single-consumer ring buffer carrying 8-byte
// recency hints from one reader thread to the cache writer. The structure
// separates producer and consumer fields with full cache-lines to eliminate
// false-sharing, and each slot carries a sequence number so Push/Pop can be
// wait-free without additional atomics.
//
// Hints are best-effort by contract: Push on a full ring reports false and
// the caller drops the hint — losing a touch only delays, never corrupts,
// eviction order.

package ring8

// slot couples a hint payload with its sequence stamp.
type slot struct {
	seq uint64 // position in the sequence space
	val uint64 // packed hint payload
}

// Ring is a fixed-capacity circular buffer dedicated to one producer and
// one consumer. Accessors are nosplit so they stay callable from pinned
// read paths.
type Ring struct {
	_    [64]byte // producer head isolated on its own cache-line
	head uint64
	//lint:ignore U1000 padding to keep head & tail on different cache-lines
	_pad1 [64]byte
	tail  uint64
	//lint:ignore U1000 padding to keep hot fields from colliding with metadata
	_pad2 [64]byte
	mask  uint64
	buf   []slot
}

// New allocates a ring whose size must be a power-of-two; otherwise it
// panics so that the bit-masking arithmetic stays valid.
func New(size int) *Ring {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring8: size must be >0 and a power of two")
	}
	r := &Ring{
		mask: uint64(size - 1),
		buf:  make([]slot, size),
	}
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
	return r
}

// Push enqueues v, returning false if the buffer is full.
//
//go:nosplit
func (r *Ring) Push(v uint64) bool {
	t := r.tail
	s := &r.buf[t&r.mask]
	if loadAcquireUint64(&s.seq) != t {
		return false // consumer has not yet reclaimed the slot
	}
	s.val = v
	storeReleaseUint64(&s.seq, t+1)
	r.tail = t + 1
	return true
}

// Pop dequeues one hint; ok is false if the buffer is empty.
//
//go:nosplit
func (r *Ring) Pop() (v uint64, ok bool) {
	h := r.head
	s := &r.buf[h&r.mask]
	if loadAcquireUint64(&s.seq) != h+1 {
		return 0, false // producer has not yet published to the slot
	}
	v = s.val
	storeReleaseUint64(&s.seq, h+uint64(len(r.buf)))
	r.head = h + 1
	return v, true
}
