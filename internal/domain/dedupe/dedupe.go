// Package dedupe tracks which fellow evaluations have already run so a
// re-delivered evaluation request for the same fellow and week is
// dropped instead of re-scored.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Deduper records seen evaluation keys for at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records
	// it if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets a key so the evaluation can be retried. Used
	// when a recorded evaluation failed downstream, e.g. queue
	// backpressure.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key builds the dedupe key for one fellow's evaluation week.
func Key(fellowID string, week int) string {
	return fmt.Sprintf("%s:%d", fellowID, week)
}

// inMemoryDeduper keeps seen keys in a map with a FIFO ring for
// eviction once maxSize is reached. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			if _, exists := d.seen[old]; exists {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = key
		d.next = (d.next + 1) % d.maxSize
	}

	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
