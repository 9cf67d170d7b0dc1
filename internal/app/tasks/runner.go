package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/havenline/outreach-api/internal/observability"
)

// Task is one unit of detached work. Run receives the runner's context, not
// the request context that enqueued it: the request is usually already
// answered by the time the task executes.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result is the completion event for one task. Err is nil on success.
type Result struct {
	Name    string
	Err     error
	Elapsed time.Duration
}

// Runner executes fire-and-forget tasks off the request path while keeping
// their outcomes observable: every task emits a Result on the results
// channel and a log line. There is no retry and no cancellation of a started
// task; a full queue drops the task.
type Runner struct {
	queue   chan Task
	results chan Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	log       *zap.Logger
}

// NewRunner creates a runner with a bounded queue. queueSize <= 0 gets a
// small default.
func NewRunner(queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 32
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		queue:   make(chan Task, queueSize),
		results: make(chan Result, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		log:     observability.Logger().Named("tasks"),
	}
}

// Start launches the worker goroutines. Safe to call once; workers <= 0 gets
// a single worker, matching the low expected concurrency per session.
func (r *Runner) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	r.startOnce.Do(func() {
		for i := 0; i < workers; i++ {
			r.wg.Add(1)
			go r.work()
		}
	})
}

// Go enqueues a task without blocking. Returns false when the queue is full;
// the task is then lost, which is the accepted failure mode for this path.
func (r *Runner) Go(t Task) bool {
	select {
	case r.queue <- t:
		return true
	default:
		r.log.Warn("task queue full, dropping task", zap.String("task", t.Name))
		return false
	}
}

// Results exposes the completion stream. The channel is buffered; when
// nobody reads it, results are dropped rather than blocking the workers.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Shutdown stops accepting work, waits for in-flight tasks and closes the
// results channel. Queued but unstarted tasks are discarded.
func (r *Runner) Shutdown() {
	r.cancel()
	r.wg.Wait()
	close(r.results)
}

func (r *Runner) work() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case t := <-r.queue:
			r.run(t)
		}
	}
}

func (r *Runner) run(t Task) {
	start := time.Now()

	err := t.Run(r.ctx)
	elapsed := time.Since(start)

	if err != nil {
		r.log.Error("task failed",
			zap.String("task", t.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	} else {
		r.log.Info("task completed",
			zap.String("task", t.Name),
			zap.Duration("elapsed", elapsed))
	}

	select {
	case r.results <- Result{Name: t.Name, Err: err, Elapsed: elapsed}:
	default:
	}
}
