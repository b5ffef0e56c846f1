// Package merger keeps the best N items of a stream with a bounded min-heap.
package merger

import (
	"container/heap"
)

// TopN retains the limit best items pushed so far. better(a, b) reports
// whether a ranks strictly above b and must be a strict total order for
// the result to be deterministic.
type TopN[T any] struct {
	h     *itemHeap[T]
	limit int
}

// New creates a TopN holding at most limit items (10 when limit <= 0).
func New[T any](limit int, better func(a, b T) bool) *TopN[T] {
	if limit <= 0 {
		limit = 10
	}
	h := &itemHeap[T]{items: make([]T, 0, limit+1), better: better}
	heap.Init(h)
	return &TopN[T]{h: h, limit: limit}
}

// Push offers x. Once full, x only enters by displacing the current worst.
func (t *TopN[T]) Push(x T) {
	if t.h.Len() < t.limit {
		heap.Push(t.h, x)
		return
	}
	if t.h.better(x, t.h.items[0]) {
		t.h.items[0] = x
		heap.Fix(t.h, 0)
	}
}

func (t *TopN[T]) Len() int { return t.h.Len() }

// Sorted drains the retained items, best first.
func (t *TopN[T]) Sorted() []T {
	result := make([]T, t.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(t.h).(T)
	}
	return result
}

// itemHeap is a min-heap: the worst retained item sits at the root.
type itemHeap[T any] struct {
	items  []T
	better func(a, b T) bool
}

func (h itemHeap[T]) Len() int { return len(h.items) }

func (h itemHeap[T]) Less(i, j int) bool { return h.better(h.items[j], h.items[i]) }

func (h itemHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *itemHeap[T]) Push(x any) {
	h.items = append(h.items, x.(T))
}

func (h *itemHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
