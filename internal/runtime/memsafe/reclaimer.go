package memsafe

import (
	"sync"
	"sync/atomic"
	"time"
)

// ReclaimerConfig tunes the background reclamation pass.
type ReclaimerConfig struct {
	Interval      time.Duration // Cycle period
	LoadThreshold float64       // Skip cycles when system load is at or above this fraction of capacity
	MaxPerCycle   int           // Cleanup cap per cycle
	GracePeriod   time.Duration // Minimum age before an unreferenced block is freed
	HighWaterMark uintptr       // Tracked-bytes level that doubles the cleanup cap
}

// DefaultReclaimerConfig returns the standard reclamation tuning.
func DefaultReclaimerConfig() ReclaimerConfig {
	return ReclaimerConfig{
		Interval:      100 * time.Millisecond,
		LoadThreshold: 0.7,
		MaxPerCycle:   10,
		GracePeriod:   5 * time.Minute,
		HighWaterMark: 100 * 1024 * 1024,
	}
}

// Reclaimer periodically frees blocks that no handle references anymore and
// whose grace period has expired. Each wake performs at most one bounded
// cleanup pass, so the allocator's hot path is never blocked for longer
// than a single sweep. Cycles are skipped entirely while system load is
// above the configured threshold.
type Reclaimer struct {
	mgr       *Manager
	config    ReclaimerConfig
	loadFn    func() float64
	wake      chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup
	started   atomic.Bool
	cycles    uint64
	reclaimed uint64
}

// NewReclaimer creates a stopped reclaimer for the given manager.
func NewReclaimer(mgr *Manager, config ReclaimerConfig) *Reclaimer {
	if config.Interval <= 0 {
		config.Interval = DefaultReclaimerConfig().Interval
	}

	return &Reclaimer{
		mgr:    mgr,
		config: config,
		loadFn: systemLoad,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

// Start launches the reclamation loop.
func (r *Reclaimer) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	r.wg.Add(1)
	go r.loop()
}

// Stop signals the loop and waits for the current cycle to finish.
func (r *Reclaimer) Stop() {
	if !r.started.Load() {
		return
	}

	close(r.stop)
	r.wg.Wait()
}

// RequestCleanup wakes the loop ahead of its next scheduled cycle.
func (r *Reclaimer) RequestCleanup() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Cycles reports how many cleanup passes have run.
func (r *Reclaimer) Cycles() uint64 {
	return atomic.LoadUint64(&r.cycles)
}

// Reclaimed reports how many blocks have been freed in the background.
func (r *Reclaimer) Reclaimed() uint64 {
	return atomic.LoadUint64(&r.reclaimed)
}

func (r *Reclaimer) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		case <-r.wake:
		}

		if r.loadFn() >= r.config.LoadThreshold {
			continue
		}

		r.runCycle()
	}
}

// runCycle performs one bounded cleanup pass. The cap doubles when tracked
// memory sits above the high-water mark.
func (r *Reclaimer) runCycle() {
	atomic.AddUint64(&r.cycles, 1)

	max := r.config.MaxPerCycle
	if r.mgr.Stats().TotalAllocated > r.config.HighWaterMark {
		max *= 2
	}

	if n := r.mgr.reclaimExpired(max, r.config.GracePeriod); n > 0 {
		atomic.AddUint64(&r.reclaimed, uint64(n))
	}
}
