// Package merge implements an ordered k-way merge over lazily pulled
// sequences, used to read sorted journal segments and to compact tables.
package merge

import (
	"container/heap"
	"iter"
)

// Sequence is a source of elements sorted under the merge's less function.
type Sequence[E any] interface {
	All() iter.Seq[E]
}

// Slice adapts an in-memory slice to a Sequence.
type Slice[E any] []E

func (s Slice[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

// Merge merges the sequences into one ordered iterator. Every input must
// already be sorted under less; ties are broken by input order, so the
// merge is stable across sequences.
func Merge[E any](less func(a, b E) bool, sequences ...Sequence[E]) iter.Seq[E] {
	return func(yield func(E) bool) {
		h := &mergeHeap[E]{less: less}
		for _, s := range sequences {
			next, stop := iter.Pull(s.All())
			//nolint:gocritic // released when the merge finishes, not per iteration.
			defer stop()
			if v, ok := next(); ok {
				h.entries = append(h.entries, entry[E]{value: v, next: next, order: len(h.entries)})
			}
		}
		heap.Init(h)

		for h.Len() > 0 {
			if !yield(h.entries[0].value) {
				return
			}
			if v, ok := h.entries[0].next(); ok {
				h.entries[0].value = v
				heap.Fix(h, 0)
			} else {
				heap.Pop(h)
			}
		}
	}
}

type entry[E any] struct {
	value E
	next  func() (E, bool)
	order int
}

type mergeHeap[E any] struct {
	entries []entry[E]
	less    func(a, b E) bool
}

func (h *mergeHeap[E]) Len() int { return len(h.entries) }

func (h *mergeHeap[E]) Less(i, j int) bool {
	if h.less(h.entries[i].value, h.entries[j].value) {
		return true
	}
	if h.less(h.entries[j].value, h.entries[i].value) {
		return false
	}
	return h.entries[i].order < h.entries[j].order
}

func (h *mergeHeap[E]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *mergeHeap[E]) Push(x any) {
	h.entries = append(h.entries, x.(entry[E]))
}

func (h *mergeHeap[E]) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	h.entries = old[:n-1]
	return e
}
