package dispatcher

import (
	"sync"

	"github.com/shahadul-17/dispatcher/core/ipc"
)

// DefaultQueueCapacity is the initial bound of the pending request queue.
const DefaultQueueCapacity = 4096

// pendingQueue is the bounded FIFO of requests awaiting a worker. Callers
// enqueue fully-formed payloads; the drainer dequeues them one at a time and
// may hand one back to the head when no worker is ready.
type pendingQueue struct {
	mu       sync.Mutex
	items    []*ipc.Payload
	head     int
	capacity int
}

func newPendingQueue(capacity int) *pendingQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &pendingQueue{capacity: capacity}
}

// enqueue admits a payload at the tail, refusing when the queue is full.
func (q *pendingQueue) enqueue(p *ipc.Payload) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items)-q.head >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, p)
	return nil
}

// dequeue removes and returns the head payload.
func (q *pendingQueue) dequeue() (*ipc.Payload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return nil, false
	}
	p := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// Reclaim the consumed prefix once it dominates the backing slice.
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0:0], q.items[q.head:]...)
		q.head = 0
	}
	return p, true
}

// requeueFront returns a dequeued payload to the head. The payload was
// already admitted, so capacity is not re-checked.
func (q *pendingQueue) requeueFront(p *ipc.Payload) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head > 0 {
		q.head--
		q.items[q.head] = p
		return
	}
	q.items = append([]*ipc.Payload{p}, q.items...)
}

// drain empties the queue and returns everything that was waiting.
func (q *pendingQueue) drain() []*ipc.Payload {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := append([]*ipc.Payload(nil), q.items[q.head:]...)
	q.items = nil
	q.head = 0
	return drained
}

func (q *pendingQueue) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
