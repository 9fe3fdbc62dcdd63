package hydrator

import (
	"context"
	"sync"
)

// Queue is an unbounded multi-producer, single-consumer FIFO of events.
// Producers never block; backpressure comes only from the Limiter.
type Queue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

// NewQueue returns an empty open queue.
func NewQueue() *Queue {
	return &Queue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Push appends an event. It reports false once the queue is closed.
func (q *Queue) Push(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Close marks the end of input. Events already queued can still be read.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Next blocks until an event is available. It reports false when the queue is
// closed and drained, or ctx is done.
func (q *Queue) Next(ctx context.Context) (Event, bool) {
	for {
		e, ok, closed := q.pop()
		if ok {
			return e, true
		}
		if closed {
			return Event{}, false
		}

		select {
		case <-ctx.Done():
			return Event{}, false
		case <-q.signal:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *Queue) pop() (Event, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false, q.closed
	}

	e := q.events[0]
	// Clear the slot so the backing array does not pin the plant.
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true, false
}
