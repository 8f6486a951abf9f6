package bot

import (
	"context"
	"sync"
)

// WorkerPool bounds the number of messages handled at once and tracks the
// in-flight ones so shutdown can wait for them.
type WorkerPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewWorkerPool creates a new worker pool with the given size.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 16
	}
	return &WorkerPool{
		sem: make(chan struct{}, size),
	}
}

// Go runs fn in a new goroutine once a slot is free. It blocks while the
// pool is full and returns ctx.Err() if ctx ends first.
func (p *WorkerPool) Go(ctx context.Context, fn func()) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		fn()
	}()
	return nil
}

// Submit queues fn and returns immediately. fn runs once a slot is free;
// Wait also waits for queued work.
func (p *WorkerPool) Submit(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()
		fn()
	}()
}

// Wait blocks until every started fn has returned or ctx ends.
func (p *WorkerPool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
