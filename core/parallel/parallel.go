// Package parallel provides bounded worker helpers for the per-feature
// stages of the pipeline. Feature binning and WoE fitting are independent
// across features, so they run on a fixed-size pool; results are joined by
// index once all workers finish.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, items) into contiguous chunks and runs fn on each
// chunk concurrently, using at most one worker per CPU core.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ForEach runs fn(i) for every i in [0, items) on a pool of at most workers
// goroutines. Each worker pulls the next index once its current item is
// done, so long-running items do not starve the rest of the batch. A
// non-positive workers value falls back to the CPU count.
func ForEach(items, workers int, fn func(i int)) {
	if items == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	for i := 0; i < items; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
