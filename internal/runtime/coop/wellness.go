package coop

import (
	"sync"
	"time"
)

// wellness tracks how a worker is holding up. The worker loop mutates it
// around every task; the pool reads snapshots for routing and stats.
type wellness struct {
	mu          sync.Mutex
	lastBreak   time.Time
	startTime   time.Time
	consecutive int
	completed   uint64
	stress      float64
}

// WellnessSnapshot is a point-in-time copy of a worker's wellness state.
type WellnessSnapshot struct {
	Stress      float64       `json:"stress"`
	Consecutive int           `json:"consecutive"`
	Completed   uint64        `json:"completed"`
	SinceBreak  time.Duration `json:"since_break"`
}

func newWellness() *wellness {
	now := time.Now()
	return &wellness{lastBreak: now, startTime: now}
}

// needsBreak reports whether a mandatory break is due. Any one trigger
// is sufficient.
func (w *wellness) needsBreak(cfg *Config) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.consecutive >= cfg.MaxConsecutive ||
		time.Since(w.lastBreak) >= cfg.MaxRunDuration ||
		w.stress >= cfg.MaxStress
}

// recordCompletion updates the counters after a task finishes. Work done
// shortly after a break raises stress; work with enough recovery time
// behind it lowers it.
func (w *wellness) recordCompletion(cfg *Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.consecutive++
	w.completed++
	if time.Since(w.lastBreak) < cfg.StressWindow {
		w.stress += cfg.StressIncrement
	} else {
		w.stress -= cfg.StressDecay
	}
	w.stress = clamp(w.stress)
}

// finishBreak records the end of a break. Stress halves and the
// consecutive count starts over.
func (w *wellness) finishBreak() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastBreak = time.Now()
	w.consecutive = 0
	w.stress = clamp(w.stress * 0.5)
}

func (w *wellness) currentStress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stress
}

func (w *wellness) snapshot() WellnessSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WellnessSnapshot{
		Stress:      w.stress,
		Consecutive: w.consecutive,
		Completed:   w.completed,
		SinceBreak:  time.Since(w.lastBreak),
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
