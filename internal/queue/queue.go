// internal/queue/queue.go
package queue

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Ticket is one queued request to be matched, tied to one connection.
type Ticket struct {
	ConnID     string
	Name       string
	EnqueuedAt time.Time
}

// Queue holds connections awaiting automatic grouping, strictly FIFO.
// It is the sole mutator of its ticket list; whenever enough tickets
// accumulate, complete batches are handed to OnBatch in arrival order.
type Queue struct {
	mu       sync.Mutex
	log      *logrus.Logger
	clock    clockwork.Clock
	size     int
	onQueued func(Ticket)
	onBatch  func([]Ticket)
	tickets  []Ticket
}

// New returns a queue that forms batches of size tickets. Both callbacks
// run outside the queue lock: onQueued acknowledges a freshly added
// ticket (before any batch it completes is delivered), onBatch receives
// each formed batch. Either may be nil.
func New(log *logrus.Logger, clock clockwork.Clock, size int, onQueued func(Ticket), onBatch func([]Ticket)) *Queue {
	return &Queue{
		log:      log,
		clock:    clock,
		size:     size,
		onQueued: onQueued,
		onBatch:  onBatch,
	}
}

// Enqueue appends a ticket for the connection and attempts match
// formation. A connection already holding a ticket is ignored; the
// return value reports whether a new ticket was added.
func (q *Queue) Enqueue(connID, name string) bool {
	q.mu.Lock()
	for _, t := range q.tickets {
		if t.ConnID == connID {
			q.mu.Unlock()
			return false
		}
	}
	ticket := Ticket{
		ConnID:     connID,
		Name:       name,
		EnqueuedAt: q.clock.Now(),
	}
	q.tickets = append(q.tickets, ticket)
	q.log.WithFields(logrus.Fields{
		"conn":    connID,
		"waiting": len(q.tickets),
	}).Info("ticket enqueued")
	batches := q.formLocked()
	q.mu.Unlock()

	if q.onQueued != nil {
		q.onQueued(ticket)
	}
	for _, batch := range batches {
		if q.onBatch != nil {
			q.onBatch(batch)
		}
	}
	return true
}

// Dequeue removes the connection's ticket if present. Unknown
// connections are silently ignored.
func (q *Queue) Dequeue(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.tickets {
		if t.ConnID == connID {
			q.tickets = append(q.tickets[:i], q.tickets[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the number of waiting tickets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tickets)
}

// formLocked pops complete groups while enough tickets remain. The
// caller must hold the lock, which keeps concurrent enqueues from
// losing or duplicating tickets mid-formation.
func (q *Queue) formLocked() [][]Ticket {
	var batches [][]Ticket
	for len(q.tickets) >= q.size {
		batch := make([]Ticket, q.size)
		copy(batch, q.tickets[:q.size])
		q.tickets = q.tickets[q.size:]
		batches = append(batches, batch)
	}
	return batches
}
