// Package scheduler runs the background sweeps on fixed intervals. Each task
// gets its own ticker goroutine and a skip-if-running guard so that a slow
// cycle is skipped rather than stacked.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/metrics"
)

// Task is one periodic job. Run receives the scheduler's context and must
// return when it is cancelled.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)

	running atomic.Bool
}

type Scheduler struct {
	tasks    []*Task
	logger   *logging.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func New(logger *logging.Logger, tasks ...*Task) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches one goroutine per task. Each task fires once immediately,
// then on its interval.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
		s.logger.Info("scheduled task started", "task", task.Name, "interval", task.Interval.String())
	}
}

// Stop signals all tasks and waits for in-flight cycles to drain.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	s.fire(ctx, task)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.fire(ctx, task)
		}
	}
}

// fire runs one cycle unless the previous one is still in flight.
func (s *Scheduler) fire(ctx context.Context, task *Task) {
	if !task.running.CompareAndSwap(false, true) {
		s.logger.Warn("task still running, skipping cycle", "task", task.Name)
		metrics.SweepSkipped.WithLabelValues(task.Name).Inc()
		return
	}
	defer task.running.Store(false)

	task.Run(ctx)
}
