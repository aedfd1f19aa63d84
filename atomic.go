package bran

import "sync/atomic"

// IDAllocator hands out monotonically increasing identifiers, starting at 1.
// Concurrent callers always receive pairwise-distinct ids with no gaps.
// The zero value is ready to use; one allocator exists per id kind.
type IDAllocator struct {
	n atomic.Uint64
}

// Next returns the next unissued id.
func (a *IDAllocator) Next() uint64 {
	return a.n.Add(1)
}

// Reset sets the counter back to zero, so the next id is 1 again.
// It is safe to call concurrently with Next.
func (a *IDAllocator) Reset() {
	a.n.Store(0)
}
