package lx

import (
	"container/heap"
	"sort"
)

// orderHeap implements heap.Interface over orders of a single side.
type orderHeap struct {
	side   Side
	orders []*Order
}

func (h *orderHeap) Len() int { return len(h.orders) }

func (h *orderHeap) Less(i, j int) bool {
	return higherPriority(h.side, h.orders[i], h.orders[j])
}

func (h *orderHeap) Swap(i, j int) { h.orders[i], h.orders[j] = h.orders[j], h.orders[i] }

func (h *orderHeap) Push(x interface{}) {
	h.orders = append(h.orders, x.(*Order))
}

func (h *orderHeap) Pop() interface{} {
	old := h.orders
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	h.orders = old[:n-1]
	return o
}

// higherPriority reports whether a must be matched before b.
// Buys rank highest price first, sells lowest price first; equal prices
// rank by arrival sequence.
func higherPriority(side Side, a, b *Order) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		if side == Buy {
			return c > 0
		}
		return c < 0
	}
	return a.seq < b.seq
}

// PriceQueue is a price/time priority queue for one side of the book.
// It is not safe for concurrent use; OrderBook serializes access to it.
type PriceQueue struct {
	h orderHeap
}

// NewPriceQueue creates an empty queue for the given side.
func NewPriceQueue(side Side) *PriceQueue {
	return &PriceQueue{h: orderHeap{side: side}}
}

// Side returns the side this queue ranks for.
func (q *PriceQueue) Side() Side { return q.h.side }

// Len returns the number of resting orders.
func (q *PriceQueue) Len() int { return q.h.Len() }

// Push inserts an order in O(log n).
func (q *PriceQueue) Push(o *Order) {
	heap.Push(&q.h, o)
}

// Best returns the highest priority order without removing it.
// ok is false when the queue is empty.
func (q *PriceQueue) Best() (o *Order, ok bool) {
	if len(q.h.orders) == 0 {
		return nil, false
	}
	return q.h.orders[0], true
}

// PopBest removes and returns the highest priority order.
func (q *PriceQueue) PopBest() (*Order, error) {
	if len(q.h.orders) == 0 {
		return nil, ErrEmptyQueue
	}
	return heap.Pop(&q.h).(*Order), nil
}

// Orders returns copies of all resting orders in priority order.
func (q *PriceQueue) Orders() []Order {
	out := make([]Order, len(q.h.orders))
	for i, o := range q.h.orders {
		out[i] = *o
	}
	side := q.h.side
	sort.Slice(out, func(i, j int) bool {
		return higherPriority(side, &out[i], &out[j])
	})
	return out
}
