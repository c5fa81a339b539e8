// Package dedupe coalesces repeated requests for the same key while one is
// still pending. The service keys it by quote ID so that a burst of proposal
// submissions schedules a single resync.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 100_000

// Deduper records pending keys.
type Deduper interface {
	// SeenAndRecord atomically checks if id is pending and records it if not.
	// Returns true if id was already pending, false if it was newly recorded
	// (or could not be recorded because the set is full).
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord releases id so the next request for it goes through. Workers
	// call it when they pick a job up, and producers call it when the job
	// could not be enqueued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a mutex-guarded set.
type inMemoryDeduper struct {
	mu      sync.Mutex
	pending map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		pending: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// SeenAndRecord implements Deduper. When the set is full the key is not
// tracked, so the caller proceeds and may schedule a redundant job; that only
// costs a recomputation.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.pending[id]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.pending) >= d.maxSize {
		return false
	}
	d.pending[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.pending[id]; exists {
		delete(d.pending, id)
		d.size.Add(-1)
	}
}

// Size returns the number of pending keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
