// Package dbqueue is a bounded FIFO handed from the replay pipeline to the
// database writer. Producers never block: once full, the oldest pending
// item is dropped to make room for the newest.
package dbqueue

import (
	"sync"

	"github.com/govalues/decimal"
)

// DefaultCapacity matches the original pipeline's max_q of 20000 pending
// snapshots.
const DefaultCapacity = 20000

// Item is one pending database write: a timestamped top-of-book for one
// symbol.
type Item struct {
	TsUS   int64
	Symbol string
	HasBid bool
	BidPx  decimal.Decimal
	BidSz  int64
	HasAsk bool
	AskPx  decimal.Decimal
	AskSz  int64
	Mid    decimal.Decimal
	Spread decimal.Decimal
}

// Queue is a bounded, drop-oldest-on-overflow FIFO with a single blocking
// consumer. Multiple producers may push concurrently.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []Item
	capacity int
	dropped  uint64
	stopped  bool
}

// New creates a Queue that holds at most capacity items.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues item, dropping the oldest pending item first if the queue
// is already at capacity. It never blocks.
func (q *Queue) Push(item Item) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.cond.Signal()
}

// Dropped returns the number of items discarded due to overflow so far.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Pop blocks until an item is available or Stop is called, in which case
// it returns (Item{}, false). It drains strictly in FIFO order.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Stop wakes the blocked consumer and causes every subsequent Pop to
// return false once the queue has drained. Push after Stop is a no-op.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the current number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
