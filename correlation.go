package dispatcher

import (
	"sync"

	"github.com/shahadul-17/dispatcher/core/ipc"
	"github.com/shahadul-17/dispatcher/pkg/async"
)

// correlationRegistry maps in-flight payload ids to the futures their
// callers await. Entries are removed when the matching terminal response is
// delivered, when the caller abandons the wait, or when the assigned worker
// dies.
type correlationRegistry struct {
	mu       sync.Mutex
	waiters  map[string]*waiterEntry
	byWorker map[int]map[string]struct{}
}

type waiterEntry struct {
	future    *async.Future[*ipc.Payload]
	processID int // -1 until the drainer assigns a worker
}

func newCorrelationRegistry() *correlationRegistry {
	return &correlationRegistry{
		waiters:  make(map[string]*waiterEntry),
		byWorker: make(map[int]map[string]struct{}),
	}
}

// register creates the one-shot waiter for a new request id.
func (r *correlationRegistry) register(payloadID string) *async.Future[*ipc.Payload] {
	future := async.NewFuture[*ipc.Payload]()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.waiters[payloadID] = &waiterEntry{future: future, processID: -1}
	return future
}

// assign records which worker a request was written to, so the entry can be
// failed if that worker dies. No-op if the waiter is already gone.
func (r *correlationRegistry) assign(payloadID string, processID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.waiters[payloadID]
	if !ok {
		return
	}
	entry.processID = processID

	ids, ok := r.byWorker[processID]
	if !ok {
		ids = make(map[string]struct{})
		r.byWorker[processID] = ids
	}
	ids[payloadID] = struct{}{}
}

// take removes and returns the waiter for an id.
func (r *correlationRegistry) take(payloadID string) (*async.Future[*ipc.Payload], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.waiters[payloadID]
	if !ok {
		return nil, false
	}
	r.removeLocked(payloadID, entry)
	return entry.future, true
}

// takeByWorker removes and returns every waiter assigned to a worker.
func (r *correlationRegistry) takeByWorker(processID int) []*async.Future[*ipc.Payload] {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byWorker[processID]
	futures := make([]*async.Future[*ipc.Payload], 0, len(ids))
	for id := range ids {
		if entry, ok := r.waiters[id]; ok {
			futures = append(futures, entry.future)
			delete(r.waiters, id)
		}
	}
	delete(r.byWorker, processID)
	return futures
}

// takeAll removes and returns every registered waiter.
func (r *correlationRegistry) takeAll() []*async.Future[*ipc.Payload] {
	r.mu.Lock()
	defer r.mu.Unlock()

	futures := make([]*async.Future[*ipc.Payload], 0, len(r.waiters))
	for _, entry := range r.waiters {
		futures = append(futures, entry.future)
	}
	r.waiters = make(map[string]*waiterEntry)
	r.byWorker = make(map[int]map[string]struct{})
	return futures
}

func (r *correlationRegistry) length() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}

func (r *correlationRegistry) removeLocked(payloadID string, entry *waiterEntry) {
	delete(r.waiters, payloadID)
	if entry.processID >= 0 {
		if ids, ok := r.byWorker[entry.processID]; ok {
			delete(ids, payloadID)
			if len(ids) == 0 {
				delete(r.byWorker, entry.processID)
			}
		}
	}
}
