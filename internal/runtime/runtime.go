// Package runtime assembles the safety subsystems into one facade: the
// tracked allocator with its background reclaimer, the cooperative
// worker pool, the lock-order registry, and the performance monitor.
// A Runtime is constructed explicitly and shut down explicitly; there
// is no process-global instance.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aster-lang/aster/internal/runtime/coop"
	"github.com/aster-lang/aster/internal/runtime/lockorder"
	"github.com/aster-lang/aster/internal/runtime/memsafe"
	"github.com/aster-lang/aster/internal/runtime/perf"
)

// HealthReport aggregates subsystem snapshots with threshold-driven
// recommendations. Healthy is true when no recommendation fired.
type HealthReport struct {
	Healthy         bool                     `json:"healthy"`
	Memory          memsafe.MemoryStats      `json:"memory"`
	Pool            coop.PoolStats           `json:"pool"`
	Deadlocks       lockorder.DeadlockReport `json:"deadlocks"`
	Performance     perf.Report              `json:"performance"`
	Recommendations []string                 `json:"recommendations,omitempty"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

// Runtime owns the safety subsystems for one process.
type Runtime struct {
	memory    *memsafe.Manager
	reclaimer *memsafe.Reclaimer
	pool      *coop.Pool
	locks     *lockorder.Registry
	monitor   *perf.Monitor

	mu         sync.RWMutex
	thresholds HealthThresholds

	debugAddr string
	debugStop func(context.Context) error
	closed    atomic.Bool
}

// New builds and starts a Runtime from cfg.
func New(cfg Config) (*Runtime, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime config: %w", err)
	}

	var memOpts []memsafe.Option
	if cfg.MaxAllocationBytes > 0 {
		memOpts = append(memOpts, memsafe.WithMaxAllocation(uintptr(cfg.MaxAllocationBytes)))
	}
	manager := memsafe.NewManager(memOpts...)

	reclaimCfg := memsafe.DefaultReclaimerConfig()
	if cfg.ReclaimInterval > 0 {
		reclaimCfg.Interval = cfg.ReclaimInterval
	}
	if cfg.LoadThreshold > 0 {
		reclaimCfg.LoadThreshold = cfg.LoadThreshold
	}
	if cfg.GracePeriod > 0 {
		reclaimCfg.GracePeriod = cfg.GracePeriod
	}
	reclaimer := memsafe.NewReclaimer(manager, reclaimCfg)

	var poolOpts []coop.Option
	if cfg.Workers > 0 {
		poolOpts = append(poolOpts, coop.WithWorkers(cfg.Workers))
	}
	if cfg.QueueCapacity > 0 {
		poolOpts = append(poolOpts, coop.WithQueueCapacity(cfg.QueueCapacity))
	}
	if cfg.BreakDuration > 0 {
		poolOpts = append(poolOpts, coop.WithBreakDuration(cfg.BreakDuration))
	}

	rt := &Runtime{
		memory:     manager,
		reclaimer:  reclaimer,
		pool:       coop.NewPool(poolOpts...),
		locks:      lockorder.NewRegistry(),
		monitor:    perf.NewMonitor(perf.DefaultMonitorConfig()),
		thresholds: cfg.Thresholds,
	}
	rt.reclaimer.Start()

	if cfg.DebugAddr != "" {
		stop, err := rt.startDebugHTTP(cfg.DebugAddr)
		if err != nil {
			rt.Shutdown()
			return nil, fmt.Errorf("debug endpoint: %w", err)
		}
		rt.debugStop = stop
	}
	return rt, nil
}

// Memory returns the tracked allocator.
func (r *Runtime) Memory() *memsafe.Manager { return r.memory }

// Pool returns the cooperative worker pool.
func (r *Runtime) Pool() *coop.Pool { return r.pool }

// Locks returns the lock-order registry.
func (r *Runtime) Locks() *lockorder.Registry { return r.locks }

// Monitor returns the performance monitor.
func (r *Runtime) Monitor() *perf.Monitor { return r.monitor }

// RequestCleanup nudges the reclaimer to run a cycle now.
func (r *Runtime) RequestCleanup() {
	r.reclaimer.RequestCleanup()
}

// ApplyThresholds swaps the health thresholds on a live runtime.
func (r *Runtime) ApplyThresholds(t HealthThresholds) {
	r.mu.Lock()
	r.thresholds = t
	r.mu.Unlock()
}

// Health snapshots every subsystem and evaluates the thresholds.
func (r *Runtime) Health() HealthReport {
	r.mu.RLock()
	thresholds := r.thresholds
	r.mu.RUnlock()

	report := HealthReport{
		Memory:      r.memory.Stats(),
		Pool:        r.pool.Stats(),
		Deadlocks:   r.locks.Analyze(),
		Performance: r.monitor.Snapshot(),
		GeneratedAt: time.Now(),
	}

	if uint64(report.Memory.TotalAllocated) > thresholds.MemoryBytes {
		report.Recommendations = append(report.Recommendations,
			"memory usage above threshold; request a cleanup cycle or release long-lived allocations")
	}
	if report.Pool.AverageStress > thresholds.AverageStress {
		report.Recommendations = append(report.Recommendations,
			"worker stress above threshold; lower the submission rate or add workers")
	}
	if report.Deadlocks.Detected {
		report.Recommendations = append(report.Recommendations,
			"lock acquisitions violate the registered hierarchy; review lock ordering")
	}
	if report.Performance.CacheMisses > thresholds.CacheMisses {
		report.Recommendations = append(report.Recommendations,
			"cache miss count above threshold; restructure hot data for locality")
	}
	report.Healthy = len(report.Recommendations) == 0
	return report
}

// Shutdown stops the pool, the reclaimer, and the debug endpoint.
// Safe to call more than once.
func (r *Runtime) Shutdown() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	if r.debugStop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = r.debugStop(ctx)
		cancel()
	}
	r.pool.Shutdown()
	r.reclaimer.Stop()
}
