//go:build !linux

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: mmap_stub.go — Arena backing store fallback (non-Linux)
//
// Purpose:
//   - Platforms without MAP_HUGETLB get a heap-backed slab. The allocator
//     keeps its bump/free-list behavior; the slab is pinned by the slice
//     reference held in Arena.mapping.
// ─────────────────────────────────────────────────────────────────────────────

package arena

// mapPages allocates a plain heap slab standing in for the mapping.
func mapPages(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// unmapPages drops the slab reference; the collector reclaims it.
func unmapPages(m []byte) {
	_ = m
}
