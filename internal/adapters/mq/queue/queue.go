// Package queue carries escalation decisions from the evaluation path
// to the drafting workers. The decision is the only suspension point in
// the engine: everything before it is synchronous, the LLM call behind
// it is not.
package queue

import (
	"context"
	"sync"

	"github.com/okian/vigil/internal/domain/escalation"
	"github.com/okian/vigil/pkg/metrics"
)

const defaultCapacity = 1000

// Decision is the payload type flowing through the queue.
type Decision = escalation.Decision

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a decision to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, d Decision) bool

	// Dequeue returns a channel that receives decisions as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Decision

	// Len returns the current number of queued decisions.
	Len(ctx context.Context) int

	// Close shuts down the queue. No further enqueues are accepted and
	// the dequeue channel drains then closes.
	Close() error
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	decisions chan Decision
	capacity  int
	mu        sync.RWMutex
	closed    bool
}

// NewInMemoryQueue creates an in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.decisions = make(chan Decision, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, d Decision) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.decisions <- d:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Decision {
	out := make(chan Decision)
	go func() {
		defer close(out)
		for d := range q.decisions {
			select {
			case out <- d:
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.decisions)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.decisions)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.decisions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
