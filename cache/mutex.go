// mutex.go
//
// Mutex-guarded baseline LRU. Every operation takes one lock; readers block
// writers and each other. Kept as the correctness oracle for the flat
// variants and as the performance floor in the harness — not for hot-path
// use.

package cache

import (
	"container/list"
	"sync"

	"flatlru/arena"
	"flatlru/blob"
)

type mutexEntry struct {
	key uint64
	h   blob.Handle
}

// Mutex is the baseline cache variant.
type Mutex struct {
	mu       sync.Mutex
	capacity int
	items    map[uint64]*list.Element
	order    *list.List // front = most recently used
	arena    *arena.Arena
}

var _ Interface = (*Mutex)(nil)

// NewMutex builds the baseline with the given capacity (≥ 1).
func NewMutex(capacity int, a *arena.Arena) *Mutex {
	if capacity < 1 {
		panic("cache: capacity must be ≥ 1")
	}
	return &Mutex{
		capacity: capacity,
		items:    make(map[uint64]*list.Element, capacity),
		order:    list.New(),
		arena:    a,
	}
}

// Get returns a retained handle for key, refreshing its recency.
func (m *Mutex) Get(key uint64) (blob.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return blob.Handle{}, false
	}
	m.order.MoveToFront(el)
	h := el.Value.(*mutexEntry).h
	h.Retain()
	return h, true
}

// Put inserts or updates key, evicting the least-recently-used entry at
// capacity. Equal payloads only refresh recency.
func (m *Mutex) Put(key uint64, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		ent := el.Value.(*mutexEntry)
		if ent.h.EqualBytes(value) {
			m.order.MoveToFront(el)
			return
		}
		old := ent.h
		ent.h = blob.New(m.arena, value)
		m.order.MoveToFront(el)
		old.Release(m.arena)
		return
	}

	if m.order.Len() >= m.capacity {
		back := m.order.Back()
		ent := back.Value.(*mutexEntry)
		delete(m.items, ent.key)
		m.order.Remove(back)
		ent.h.Release(m.arena)
	}

	m.items[key] = m.order.PushFront(&mutexEntry{key: key, h: blob.New(m.arena, value)})
}

// Name identifies the configured variant.
func (m *Mutex) Name() string { return "mutexlru" }

// Len returns the current entry count.
func (m *Mutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Close releases every held value.
func (m *Mutex) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, el := range m.items {
		el.Value.(*mutexEntry).h.Release(m.arena)
	}
	m.items = make(map[uint64]*list.Element)
	m.order.Init()
}
