package coop

import (
	"testing"
	"time"
)

// TestStressAccumulation tests the increment/decay rule around the
// recent-work window
func TestStressAccumulation(t *testing.T) {
	cfg := defaultConfig()

	t.Run("InsideWindow", func(t *testing.T) {
		w := newWellness()
		for i := 0; i < 3; i++ {
			w.recordCompletion(&cfg)
		}
		snap := w.snapshot()
		if got, want := snap.Stress, 0.3; !closeEnough(got, want) {
			t.Errorf("stress = %v, want %v", got, want)
		}
		if snap.Consecutive != 3 {
			t.Errorf("consecutive = %d, want 3", snap.Consecutive)
		}
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		w := newWellness()
		w.stress = 0.4
		w.lastBreak = time.Now().Add(-2 * cfg.StressWindow)
		w.recordCompletion(&cfg)
		if got, want := w.currentStress(), 0.35; !closeEnough(got, want) {
			t.Errorf("stress = %v, want %v", got, want)
		}
	})

	t.Run("ClampedAtZero", func(t *testing.T) {
		w := newWellness()
		w.lastBreak = time.Now().Add(-2 * cfg.StressWindow)
		w.recordCompletion(&cfg)
		if got := w.currentStress(); got != 0 {
			t.Errorf("stress = %v, want 0", got)
		}
	})

	t.Run("ClampedAtOne", func(t *testing.T) {
		w := newWellness()
		for i := 0; i < 20; i++ {
			w.recordCompletion(&cfg)
		}
		if got := w.currentStress(); got != 1 {
			t.Errorf("stress = %v, want 1", got)
		}
	})
}

// TestBreakTriggers tests each mandatory-break condition in isolation
func TestBreakTriggers(t *testing.T) {
	cfg := defaultConfig()

	t.Run("Consecutive", func(t *testing.T) {
		w := newWellness()
		w.consecutive = cfg.MaxConsecutive - 1
		if w.needsBreak(&cfg) {
			t.Error("break due one task early")
		}
		w.consecutive = cfg.MaxConsecutive
		if !w.needsBreak(&cfg) {
			t.Error("break not due at the consecutive limit")
		}
	})

	t.Run("RunDuration", func(t *testing.T) {
		w := newWellness()
		w.lastBreak = time.Now().Add(-cfg.MaxRunDuration - time.Second)
		if !w.needsBreak(&cfg) {
			t.Error("break not due after the run-duration limit")
		}
	})

	t.Run("Stress", func(t *testing.T) {
		w := newWellness()
		w.stress = cfg.MaxStress
		if !w.needsBreak(&cfg) {
			t.Error("break not due at the stress limit")
		}
	})
}

// TestFinishBreak tests that a break halves stress and resets the
// consecutive count
func TestFinishBreak(t *testing.T) {
	w := newWellness()
	w.stress = 0.9
	w.consecutive = 42

	w.finishBreak()

	snap := w.snapshot()
	if !closeEnough(snap.Stress, 0.45) {
		t.Errorf("stress = %v, want 0.45", snap.Stress)
	}
	if snap.Consecutive != 0 {
		t.Errorf("consecutive = %d, want 0", snap.Consecutive)
	}
	if snap.SinceBreak > time.Second {
		t.Errorf("since-break = %v, want recent", snap.SinceBreak)
	}
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
