package bran

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAllocatorSequence(t *testing.T) {
	var ids IDAllocator
	assert.EqualValues(t, 1, ids.Next())
	assert.EqualValues(t, 2, ids.Next())
	assert.EqualValues(t, 3, ids.Next())

	ids.Reset()
	assert.EqualValues(t, 1, ids.Next(), "the first id after a reset is 1")
}

func TestIDAllocatorConcurrent(t *testing.T) {
	const workers = 16
	const perWorker = 1000

	var ids IDAllocator
	results := make([][]uint64, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			out := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				out = append(out, ids.Next())
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers*perWorker)
	var max uint64
	for _, out := range results {
		for _, id := range out {
			require.False(t, seen[id], "id %d issued twice", id)
			seen[id] = true
			if id > max {
				max = id
			}
		}
	}
	// Distinct, and no gaps: the highest id equals the number of calls.
	assert.Len(t, seen, workers*perWorker)
	assert.EqualValues(t, workers*perWorker, max)
}
