// Package scheduler runs periodic background tasks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/logging"
)

// Task is one unit of periodic work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// TaskFunc adapts a function to Task.
func TaskFunc(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

type entry struct {
	task     Task
	interval time.Duration
	timeout  time.Duration
}

// Runner ticks every registered task on its own goroutine. A task never
// overlaps itself: a tick that outlasts the interval makes the ticker drop
// the ticks it missed.
type Runner struct {
	log     logging.Logger
	entries []entry
	wg      sync.WaitGroup
}

func NewRunner(log logging.Logger) *Runner {
	return &Runner{log: log.With("module", "scheduler")}
}

// Add registers task to run every interval, each run bounded by timeout.
// A zero timeout leaves runs bounded only by the Start context.
func (r *Runner) Add(task Task, interval, timeout time.Duration) {
	r.entries = append(r.entries, entry{task: task, interval: interval, timeout: timeout})
}

// Start launches all tasks. They stop when ctx is cancelled; Wait blocks
// until they have.
func (r *Runner) Start(ctx context.Context) {
	for _, e := range r.entries {
		e := e // per-iteration copy; go.mod targets go1.21 loop semantics
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.loop(ctx, e)
		}()
	}
}

// Wait blocks until every task loop has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, e entry) {
	r.log.Info(ctx, "task started", "task", e.task.Name(), "interval", e.interval.String())

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runOnce(ctx, e)
		case <-ctx.Done():
			r.log.Info(context.Background(), "task stopped", "task", e.task.Name())
			return
		}
	}
}

// runOnce executes one tick. Errors and panics end the tick, not the loop.
func (r *Runner) runOnce(ctx context.Context, e entry) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error(ctx, "task panicked", "task", e.task.Name(), "panic", fmt.Sprint(p))
		}
	}()

	start := time.Now()
	if err := e.task.Run(ctx); err != nil {
		r.log.Error(ctx, "task failed", "task", e.task.Name(), "error", err, "elapsed", time.Since(start).String())
		return
	}
	r.log.Debug(ctx, "task finished", "task", e.task.Name(), "elapsed", time.Since(start).String())
}
