package webhook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueSize   = 256
	defaultWorkers     = 4
	defaultTaskTimeout = time.Minute
)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Executor runs webhook-triggered work on a small fixed pool so that
// handlers can acknowledge deliveries immediately. The queue is
// bounded; Submit reports false instead of blocking when it is full.
type Executor struct {
	log     *zap.Logger
	tasks   chan task
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	timeout time.Duration
}

func NewExecutor(log *zap.Logger) *Executor {
	e := &Executor{
		log:     log.Named("webhook.executor"),
		tasks:   make(chan task, defaultQueueSize),
		timeout: defaultTaskTimeout,
	}
	for i := 0; i < defaultWorkers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Submit enqueues fn for asynchronous execution. It returns false when
// the executor is stopped or the queue is full.
func (e *Executor) Submit(name string, fn func(ctx context.Context) error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	select {
	case e.tasks <- task{name: name, fn: fn}:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks until ctx
// expires.
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.tasks)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for t := range e.tasks {
		e.run(t)
	}
}

func (e *Executor) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("webhook task panicked",
				zap.String("task", t.name),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := t.fn(ctx); err != nil {
		e.log.Warn("webhook task failed",
			zap.String("task", t.name),
			zap.Error(err),
		)
	}
}
