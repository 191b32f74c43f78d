package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	n := 1000
	hits := make([]int32, n)
	Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		assert.EqualValues(t, 1, h, "item %d", i)
	}
}

func TestParallelizeEmpty(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) {
		if start < end {
			called = true
		}
	})
	assert.False(t, called)
}

func TestForEachCoversAllItems(t *testing.T) {
	n := 500
	hits := make([]int32, n)
	ForEach(n, 4, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i, h := range hits {
		assert.EqualValues(t, 1, h, "item %d", i)
	}
}

func TestForEachDefaultWorkers(t *testing.T) {
	var count int64
	ForEach(100, 0, func(i int) {
		atomic.AddInt64(&count, 1)
	})
	assert.EqualValues(t, 100, count)
}
