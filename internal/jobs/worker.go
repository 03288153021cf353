// Package jobs runs periodic background tasks on a fixed interval.
package jobs

import (
	"context"
	"log"
	"time"
)

// Task is a unit of periodic background work. Run is invoked on every
// worker tick and should be quick relative to the tick interval.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Worker executes a set of tasks on a ticker until stopped.
type Worker struct {
	tasks    []Task
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker creates a worker that runs the given tasks every interval.
func NewWorker(interval time.Duration, tasks ...Task) *Worker {
	return &Worker{
		tasks:    tasks,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the tick loop. It blocks until Stop is called or the
// context is cancelled, so callers usually run it in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.doneChan)

	log.Printf("background worker started (interval: %v, tasks: %d)", w.interval, len(w.tasks))

	// Run once immediately so status endpoints have data at startup.
	w.runAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("background worker stopping: context cancelled")
			return
		case <-w.stopChan:
			log.Printf("background worker stopping: stop requested")
			return
		case <-ticker.C:
			w.runAll(ctx)
		}
	}
}

// Stop signals the worker to stop and waits for the loop to exit.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

func (w *Worker) runAll(ctx context.Context) {
	for _, t := range w.tasks {
		if err := t.Run(ctx); err != nil {
			log.Printf("background task %s failed: %v", t.Name(), err)
		}
	}
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Name() string { return t.TaskName }

func (t TaskFunc) Run(ctx context.Context) error { return t.Fn(ctx) }
