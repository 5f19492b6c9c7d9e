package coop

import (
	"fmt"
	"sync"
	"time"

	"github.com/aster-lang/aster/internal/errors"
)

// Task is a unit of work executed on a pool worker.
type Task func() (any, error)

// assignment pairs a task with its future. A nil task is a break
// request: the worker rests instead of executing anything.
type assignment struct {
	task   Task
	future *Future
}

// worker owns a private queue and executes assignments one at a time.
// Only the worker's own loop sleeps, rests, or runs tasks.
type worker struct {
	id       int
	queue    chan assignment
	wellness *wellness
	config   *Config
}

func newWorker(id int, cfg *Config) *worker {
	return &worker{
		id:       id,
		queue:    make(chan assignment, cfg.QueueCapacity),
		wellness: newWellness(),
		config:   cfg,
	}
}

// tryAssign offers an assignment without blocking. It fails when the
// worker is due for a mandatory break or the queue is full.
func (w *worker) tryAssign(a assignment) bool {
	if w.wellness.needsBreak(w.config) {
		return false
	}
	select {
	case w.queue <- a:
		return true
	default:
		return false
	}
}

// enqueueBreak places a break request on the queue regardless of the
// wellness gate. Best effort: a full queue drops the request since the
// backlog itself will trip a mandatory break soon enough.
func (w *worker) enqueueBreak() bool {
	select {
	case w.queue <- assignment{}:
		return true
	default:
		return false
	}
}

func (w *worker) queueDepth() int {
	return len(w.queue)
}

// loop is the worker goroutine. Once stop is signaled no further task
// is dequeued; the in-flight task is the only one that finishes. The
// stop check before the blocking select keeps a signaled worker from
// picking up queued work it raced against.
func (w *worker) loop(stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}
		select {
		case a := <-w.queue:
			w.process(a)
		case <-stop:
			return
		}
	}
}

// failPending resolves every still-queued future with a shutdown error.
// Called by the pool after the worker goroutine has exited, so there is
// no competing receiver.
func (w *worker) failPending() {
	for {
		select {
		case a := <-w.queue:
			if a.future != nil {
				a.future.complete(nil, errors.PoolShutDown())
			}
		default:
			return
		}
	}
}

func (w *worker) process(a assignment) {
	if a.task == nil {
		w.rest()
		if a.future != nil {
			a.future.complete(nil, nil)
		}
		return
	}
	if w.wellness.needsBreak(w.config) {
		w.rest()
	}
	value, err := w.run(a.task)
	// Count only successes, and count them before resolving the future
	// so a caller observing the result sees the updated counters.
	if err == nil {
		w.wellness.recordCompletion(w.config)
	}
	a.future.complete(value, err)
}

// run executes the task, converting a panic into an error on the future
// rather than taking down the worker.
func (w *worker) run(task Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}

func (w *worker) rest() {
	time.Sleep(w.config.BreakDuration)
	w.wellness.finishBreak()
}
