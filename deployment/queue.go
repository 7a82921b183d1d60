package deployment

import "sync"

// Queue collects deploy requests in insertion order until they are drained for execution.
//
// A request whose contract is already pending replaces the pending one in place, unless it asks
// for a redeploy, in which case it is kept as a distinct attempt. The queue is safe for concurrent
// use.
type Queue struct {
	mu      sync.Mutex
	pending []DeployRequest
	drained bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends req. It returns false when the queue was already drained.
func (q *Queue) Enqueue(req DeployRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.drained {
		return false
	}

	if !req.Redeploy() {
		for i, p := range q.pending {
			if p.Contract() == req.Contract() && !p.Redeploy() {
				q.pending[i] = req
				return true
			}
		}
	}
	q.pending = append(q.pending, req)

	return true
}

// Drain returns every pending request in insertion order and empties the queue. A queue can only
// be drained once; later calls return nil.
func (q *Queue) Drain() []DeployRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.drained {
		return nil
	}
	q.drained = true

	out := q.pending
	q.pending = nil

	return out
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}
