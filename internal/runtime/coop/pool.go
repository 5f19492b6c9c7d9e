package coop

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aster-lang/aster/internal/errors"
)

// WorkerStats describes one worker for reporting.
type WorkerStats struct {
	ID          int     `json:"id"`
	Stress      float64 `json:"stress"`
	Consecutive int     `json:"consecutive"`
	Completed   uint64  `json:"completed"`
	QueueDepth  int     `json:"queue_depth"`
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Workers        []WorkerStats `json:"workers"`
	AverageStress  float64       `json:"average_stress"`
	TotalCompleted uint64        `json:"total_completed"`
	CollectedAt    time.Time     `json:"collected_at"`
}

// Pool distributes tasks across workers, preferring the least stressed
// one. Workers that are due for a break refuse new assignments; the
// refusal surfaces to the caller instead of being retried silently.
type Pool struct {
	config  Config
	workers []*worker
	stop    chan struct{}
	wg      sync.WaitGroup
	cursor  atomic.Uint64
	closed  atomic.Bool
}

// NewPool creates and starts a pool.
func NewPool(opts ...Option) *Pool {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Pool{
		config: cfg,
		stop:   make(chan struct{}),
	}
	p.workers = make([]*worker, cfg.Workers)
	for i := range p.workers {
		p.workers[i] = newWorker(i, &p.config)
	}
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.loop(p.stop, &p.wg)
	}
	return p
}

// Submit hands the task to the least stressed worker under the
// preference threshold. When every worker is at or over the threshold
// it falls back to round-robin. A refused assignment is an error, not a
// retry.
func (p *Pool) Submit(task Task) (*Future, error) {
	if task == nil {
		return nil, errors.PoolOverwhelmed().WithContext("nil task submitted")
	}
	if p.closed.Load() {
		return nil, errors.PoolOverwhelmed().WithContext("pool is shut down")
	}

	future := newFuture()
	a := assignment{task: task, future: future}

	if w := p.preferredWorker(); w != nil {
		if !w.tryAssign(a) {
			return nil, errors.AssignmentRefused(w.id)
		}
		return future, nil
	}

	w := p.workers[p.cursor.Add(1)%uint64(len(p.workers))]
	if !w.tryAssign(a) {
		return nil, errors.PoolOverwhelmed().
			WithContext(fmt.Sprintf("fallback worker %d refused, queue depth %d", w.id, w.queueDepth()))
	}
	return future, nil
}

// preferredWorker returns the least stressed worker strictly under the
// threshold, or nil when none qualifies.
func (p *Pool) preferredWorker() *worker {
	var best *worker
	bestStress := p.config.StressThreshold
	for _, w := range p.workers {
		if s := w.wellness.currentStress(); s < bestStress {
			best, bestStress = w, s
		}
	}
	return best
}

// Stats collects a snapshot across all workers.
func (p *Pool) Stats() PoolStats {
	stats := PoolStats{
		Workers:     make([]WorkerStats, 0, len(p.workers)),
		CollectedAt: time.Now(),
	}
	var stressSum float64
	for _, w := range p.workers {
		snap := w.wellness.snapshot()
		stats.Workers = append(stats.Workers, WorkerStats{
			ID:          w.id,
			Stress:      snap.Stress,
			Consecutive: snap.Consecutive,
			Completed:   snap.Completed,
			QueueDepth:  w.queueDepth(),
		})
		stressSum += snap.Stress
		stats.TotalCompleted += snap.Completed
	}
	if len(p.workers) > 0 {
		stats.AverageStress = stressSum / float64(len(p.workers))
	}
	return stats
}

// EnsureWellness enqueues a break request on every worker above the
// preference threshold. Returns how many requests were accepted.
func (p *Pool) EnsureWellness() int {
	accepted := 0
	for _, w := range p.workers {
		if w.wellness.currentStress() > p.config.StressThreshold {
			if w.enqueueBreak() {
				accepted++
			}
		}
	}
	return accepted
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return len(p.workers)
}

// Shutdown stops all workers and waits for them. Only in-flight tasks
// finish; futures still queued resolve with a shutdown error. Submit
// fails afterwards. Safe to call more than once.
func (p *Pool) Shutdown() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.stop)
	p.wg.Wait()
	for _, w := range p.workers {
		w.failPending()
	}
}
