package aggregator

import (
	"container/heap"
	"sort"
)

// TopK keeps the k highest-scored items pushed into it.
// Among equal scores the earliest pushed items are kept.
type TopK[T any] struct {
	capacity int
	seq      int
	items    topKHeap[T]
}

type topKItem[T any] struct {
	score int64
	seq   int
	value T
}

// topKHeap is a min-heap: the root is the item evicted next
type topKHeap[T any] []topKItem[T]

func (h topKHeap[T]) Len() int { return len(h) }

func (h topKHeap[T]) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq > h[j].seq
}

func (h topKHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap[T]) Push(x any) { *h = append(*h, x.(topKItem[T])) }

func (h *topKHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NewTopK creates a TopK holding at most capacity items
func NewTopK[T any](capacity int) *TopK[T] {
	return &TopK[T]{capacity: capacity}
}

// Push offers value with the given score, evicting the smallest item when full
func (t *TopK[T]) Push(score int64, value T) {
	if t.capacity <= 0 {
		return
	}
	heap.Push(&t.items, topKItem[T]{score: score, seq: t.seq, value: value})
	t.seq++
	if t.items.Len() > t.capacity {
		heap.Pop(&t.items)
	}
}

// Len returns the number of items currently held
func (t *TopK[T]) Len() int {
	return t.items.Len()
}

// Sorted returns the held items, highest score first, ties in push order
func (t *TopK[T]) Sorted() []T {
	items := make([]topKItem[T], len(t.items))
	copy(items, t.items)
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].seq < items[j].seq
	})

	values := make([]T, len(items))
	for i, item := range items {
		values[i] = item.value
	}
	return values
}
