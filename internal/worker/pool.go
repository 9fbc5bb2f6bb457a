package worker

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
)

// Task processes the item at index i.
type Task func(ctx context.Context, i int) error

// WorkerPool runs indexed tasks on a fixed number of workers.
type WorkerPool struct {
	logger     arbor.ILogger
	numWorkers int
}

func NewWorkerPool(logger arbor.ILogger, numWorkers int) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool{
		logger:     logger,
		numWorkers: numWorkers,
	}
}

// Run calls task for every index in [0, n) and waits for all workers to
// finish. The first failure cancels the remaining tasks and is returned;
// tasks already running see the cancelled context.
func (wp *WorkerPool) Run(parent context.Context, n int, task Task) error {
	if n <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	indices := make(chan int)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	workers := min(wp.numWorkers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			wp.worker(ctx, workerID, indices, task, func(err error) {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			})
		}(w)
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return parent.Err()
}

// worker is the main worker loop
func (wp *WorkerPool) worker(ctx context.Context, workerID int, indices <-chan int, task Task, fail func(error)) {
	wp.logger.Debug().
		Int("worker_id", workerID).
		Msg("Worker started")

	for i := range indices {
		if ctx.Err() != nil {
			continue
		}
		if err := task(ctx, i); err != nil {
			wp.logger.Debug().
				Err(err).
				Int("worker_id", workerID).
				Int("task", i).
				Msg("Task failed")
			fail(err)
		}
	}
}
