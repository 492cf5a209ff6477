package priority

import "container/heap"

// Queue is a keyed priority queue. Each key appears at most once; Set on an
// existing key reprioritizes it in place. The less function returns true
// when a has higher priority than b.
type Queue[K comparable, V any] struct {
	h *keyedHeap[K, V]
}

// NewQueue creates a queue ordered by the given comparison function.
func NewQueue[K comparable, V any](less func(a, b V) bool) *Queue[K, V] {
	return &Queue[K, V]{
		h: &keyedHeap[K, V]{
			byKey: make(map[K]*entry[K, V]),
			less:  less,
		},
	}
}

// Len returns the number of entries in the queue.
func (q *Queue[K, V]) Len() int {
	return q.h.Len()
}

// Get returns the value stored under key.
func (q *Queue[K, V]) Get(key K) (V, bool) {
	e, ok := q.h.byKey[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set inserts the key or updates its value, restoring heap order either way.
func (q *Queue[K, V]) Set(key K, value V) {
	if e, ok := q.h.byKey[key]; ok {
		e.value = value
		heap.Fix(q.h, e.index)
		return
	}
	heap.Push(q.h, &entry[K, V]{key: key, value: value})
}

// Remove deletes the key from the queue if present.
func (q *Queue[K, V]) Remove(key K) {
	if e, ok := q.h.byKey[key]; ok {
		heap.Remove(q.h, e.index)
	}
}

// Peek returns the highest priority entry without removing it.
func (q *Queue[K, V]) Peek() (key K, value V, ok bool) {
	if q.h.Len() == 0 {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	e := q.h.entries[0]
	return e.key, e.value, true
}

// Pop removes and returns the highest priority entry.
func (q *Queue[K, V]) Pop() (key K, value V, ok bool) {
	if q.h.Len() == 0 {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	e := heap.Pop(q.h).(*entry[K, V])
	return e.key, e.value, true
}

type entry[K comparable, V any] struct {
	key   K
	value V
	index int
}

// keyedHeap implements heap.Interface with a map for O(1) key lookup.
type keyedHeap[K comparable, V any] struct {
	entries []*entry[K, V]
	byKey   map[K]*entry[K, V]
	less    func(a, b V) bool
}

func (h *keyedHeap[K, V]) Len() int { return len(h.entries) }

func (h *keyedHeap[K, V]) Less(i, j int) bool {
	return h.less(h.entries[i].value, h.entries[j].value)
}

func (h *keyedHeap[K, V]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

func (h *keyedHeap[K, V]) Push(x any) {
	e := x.(*entry[K, V])
	e.index = len(h.entries)
	h.entries = append(h.entries, e)
	h.byKey[e.key] = e
}

func (h *keyedHeap[K, V]) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	delete(h.byKey, e.key)
	return e
}
