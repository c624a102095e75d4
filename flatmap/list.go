// list.go
//
// Intrusive recency list maintenance. Links are slot indices inside the
// same fixed table (arena + index pattern): no per-node allocation, O(1)
// reorder. Writer-only — the reader path never touches links.

package flatmap

// linked reports whether idx currently participates in the recency list.
// A detached or never-linked slot has both links at NullIdx and is not the
// head (a single-entry list keeps head == tail == idx with null links).
//
//go:nosplit
func (m *Map) linked(idx uint32) bool {
	meta := &m.meta[idx]
	return meta.next != NullIdx || meta.prev != NullIdx || m.head == idx
}

// detach unlinks idx from the list, patching head/tail as needed.
//
//go:nosplit
func (m *Map) detach(idx uint32) {
	meta := &m.meta[idx]
	n, p := meta.next, meta.prev

	if n != NullIdx {
		m.meta[n].prev = p
	} else {
		m.tail = p
	}
	if p != NullIdx {
		m.meta[p].next = n
	} else {
		m.head = n
	}

	meta.next = NullIdx
	meta.prev = NullIdx
}

// pushFront makes idx the most-recently-used entry.
//
//go:nosplit
func (m *Map) pushFront(idx uint32) {
	meta := &m.meta[idx]
	oldHead := m.head

	meta.next = oldHead
	meta.prev = NullIdx

	if oldHead != NullIdx {
		m.meta[oldHead].prev = idx
	}
	m.head = idx

	if m.tail == NullIdx {
		m.tail = idx
	}
}

// MoveToFront promotes idx to most-recently-used. Freshly emplaced slots
// are linked for the first time here; already-linked slots are detached
// and re-pushed. O(1) either way.
//
//go:nosplit
func (m *Map) MoveToFront(idx uint32) {
	if idx == m.head || idx == NullIdx {
		return
	}
	if m.linked(idx) {
		m.detach(idx)
	}
	m.pushFront(idx)
}
