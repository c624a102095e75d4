//go:build linux

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: mmap_linux.go — Huge-page mapping (Linux)
//
// Purpose:
//   - Requests an anonymous MAP_HUGETLB mapping for the value arena.
//   - Hosts without reserved huge pages get a plain anonymous mapping: the
//     arena still works, only the TLB benefit is lost.
// ─────────────────────────────────────────────────────────────────────────────

package arena

import (
	"syscall"

	"flatlru/debug"
)

// mapPages maps size bytes of anonymous memory, huge pages preferred.
func mapPages(size int) ([]byte, error) {
	const prot = syscall.PROT_READ | syscall.PROT_WRITE
	const base = syscall.MAP_PRIVATE | syscall.MAP_ANONYMOUS

	m, err := syscall.Mmap(-1, 0, size, prot, base|syscall.MAP_HUGETLB)
	if err == nil {
		return m, nil
	}
	// Typically ENOMEM: no huge pages reserved on this host.
	debug.DropError("arena: MAP_HUGETLB refused, using regular pages", err)

	return syscall.Mmap(-1, 0, size, prot, base)
}

// unmapPages releases a mapping created by mapPages.
func unmapPages(m []byte) {
	_ = syscall.Munmap(m)
}
