package transport

import "sync"

// Inbox hands packets from the receive goroutine to the tick goroutine.
type Inbox struct {
	mu    sync.Mutex
	items []Packet
	limit int
}

// NewInbox creates an Inbox holding at most limit undrained packets
func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = DefaultConfig().InboxLimit
	}
	return &Inbox{limit: limit}
}

// Push appends p, returning false if the inbox is full
func (q *Inbox) Push(p Packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.limit {
		return false
	}
	q.items = append(q.items, p)
	return true
}

// Drain returns everything queued so far in arrival order
func (q *Inbox) Drain() []Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *Inbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
