package upload

import (
	"context"
	"log/slog"
	"sync"
)

type task func(ctx context.Context)

// workerPool runs page writes with bounded parallelism.
type workerPool struct {
	workerCount int
	taskQueue   chan task
	wg          sync.WaitGroup
	ctx         context.Context
	logger      *slog.Logger
}

func newWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger) *workerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &workerPool{
		workerCount: workerCount,
		taskQueue:   make(chan task, workerCount*2),
		ctx:         ctx,
		logger:      logger,
	}
}

func (wp *workerPool) start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
	wp.logger.Debug("upload_workers_started", "workers", wp.workerCount)
}

func (wp *workerPool) submit(t task) {
	wp.taskQueue <- t
}

// wait closes the queue and blocks until every submitted task has run. It is
// called once, after the last submit.
func (wp *workerPool) wait() {
	close(wp.taskQueue)
	wp.wg.Wait()
}

// worker drains the queue even after cancellation; tasks see the cancelled
// context and record their own failure.
func (wp *workerPool) worker() {
	defer wp.wg.Done()
	for t := range wp.taskQueue {
		t(wp.ctx)
	}
}
