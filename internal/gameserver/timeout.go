// Package gameserver is the session core: it owns connected-client state,
// the heartbeat timeout schedule, and the dispatch of decoded requests to
// their handlers.
package gameserver

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

var (
	// ErrNotTracked indicates a client with no pending timeout entry.
	ErrNotTracked = fmt.Errorf("client not tracked")
)

// TimeoutQueue orders tracked clients by heartbeat deadline so a sweep only
// inspects the earliest entries. Safe for concurrent use.
type TimeoutQueue struct {
	mu    sync.Mutex
	items timeoutHeap
	index map[session.ClientID]*timeoutItem
}

type timeoutItem struct {
	id       session.ClientID
	deadline time.Time
	pos      int
}

// NewTimeoutQueue creates an empty queue.
func NewTimeoutQueue() *TimeoutQueue {
	return &TimeoutQueue{
		index: make(map[session.ClientID]*timeoutItem),
	}
}

// Track begins watching a client, or moves its deadline if it is already
// tracked.
//
// Postcondition: the client's deadline equals the given deadline.
func (q *TimeoutQueue) Track(id session.ClientID, deadline time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item, ok := q.index[id]; ok {
		item.deadline = deadline
		heap.Fix(&q.items, item.pos)
		return
	}
	item := &timeoutItem{id: id, deadline: deadline}
	q.index[id] = item
	heap.Push(&q.items, item)
}

// Touch pushes a tracked client's deadline forward.
func (q *TimeoutQueue) Touch(id session.ClientID, deadline time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.index[id]
	if !ok {
		return fmt.Errorf("touching client %d: %w", id, ErrNotTracked)
	}
	item.deadline = deadline
	heap.Fix(&q.items, item.pos)
	return nil
}

// Untrack stops watching a client.
//
// Postcondition: the client has no timeout entry; returns ErrNotTracked if it
// had none to begin with.
func (q *TimeoutQueue) Untrack(id session.ClientID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.index[id]
	if !ok {
		return fmt.Errorf("untracking client %d: %w", id, ErrNotTracked)
	}
	heap.Remove(&q.items, item.pos)
	delete(q.index, id)
	return nil
}

// Expired removes and returns every client whose deadline is at or before
// now, earliest first.
func (q *TimeoutQueue) Expired(now time.Time) []session.ClientID {
	q.mu.Lock()
	defer q.mu.Unlock()

	var expired []session.ClientID
	for q.items.Len() > 0 {
		earliest := q.items[0]
		if earliest.deadline.After(now) {
			break
		}
		heap.Pop(&q.items)
		delete(q.index, earliest.id)
		expired = append(expired, earliest.id)
	}
	return expired
}

// PeekEarliest returns the next deadline without removing it.
func (q *TimeoutQueue) PeekEarliest() (session.ClientID, time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return 0, time.Time{}, false
	}
	return q.items[0].id, q.items[0].deadline, true
}

// Len returns the number of tracked clients.
func (q *TimeoutQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// timeoutHeap is a min-heap on deadline. Callers hold TimeoutQueue.mu.
type timeoutHeap []*timeoutItem

func (h timeoutHeap) Len() int           { return len(h) }
func (h timeoutHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h timeoutHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].pos = i; h[j].pos = j }

func (h *timeoutHeap) Push(x any) {
	item := x.(*timeoutItem)
	item.pos = len(*h)
	*h = append(*h, item)
}

func (h *timeoutHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
