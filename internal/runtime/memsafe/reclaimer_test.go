package memsafe

import (
	"testing"
	"time"
)

// TestReclaimExpired tests the bounded cleanup pass directly
func TestReclaimExpired(t *testing.T) {
	mgr := NewManager()

	handles := make([]*Handle[byte], 5)
	for i := range handles {
		h, err := Allocate[byte](mgr, 32, "reclaim target")
		if err != nil {
			t.Fatalf("Allocation failed: %v", err)
		}
		handles[i] = h
	}

	// Referenced blocks are never reclaimed, regardless of age.
	if n := mgr.reclaimExpired(10, 0); n != 0 {
		t.Errorf("Reclaimed %d referenced blocks, want 0", n)
	}

	for _, h := range handles {
		h.Release()
	}

	// Blocks inside the grace period survive.
	if n := mgr.reclaimExpired(10, time.Hour); n != 0 {
		t.Errorf("Reclaimed %d blocks inside grace period, want 0", n)
	}

	// The per-pass cap bounds a single sweep.
	if n := mgr.reclaimExpired(2, 0); n != 2 {
		t.Errorf("Reclaimed %d blocks with cap 2, want 2", n)
	}
	if n := mgr.reclaimExpired(10, 0); n != 3 {
		t.Errorf("Reclaimed %d remaining blocks, want 3", n)
	}

	if stats := mgr.Stats(); stats.BlockCount != 0 {
		t.Errorf("BlockCount = %d after reclamation, want 0", stats.BlockCount)
	}
}

// TestReclaimerLoop tests the background cycle end to end
func TestReclaimerLoop(t *testing.T) {
	mgr := NewManager()

	cfg := DefaultReclaimerConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.GracePeriod = 0

	r := NewReclaimer(mgr, cfg)
	r.loadFn = func() float64 { return 0 } // Force the load gate open.

	h, err := Allocate[int](mgr, 10, "background")
	if err != nil {
		t.Fatalf("Allocation failed: %v", err)
	}
	h.Release()

	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mgr.Stats().BlockCount == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := mgr.Stats().BlockCount; got != 0 {
		t.Fatalf("BlockCount = %d, want 0 after background reclamation", got)
	}
	if r.Reclaimed() == 0 {
		t.Error("Reclaimed counter should be non-zero")
	}
}

// TestReclaimerLoadGate tests that high system load suppresses cleanup
func TestReclaimerLoadGate(t *testing.T) {
	mgr := NewManager()

	cfg := DefaultReclaimerConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.GracePeriod = 0

	r := NewReclaimer(mgr, cfg)
	r.loadFn = func() float64 { return 0.95 } // Saturated machine.

	h, err := Allocate[int](mgr, 10, "gated")
	if err != nil {
		t.Fatalf("Allocation failed: %v", err)
	}
	h.Release()

	r.Start()
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	if got := mgr.Stats().BlockCount; got != 1 {
		t.Errorf("BlockCount = %d, want 1 while load-gated", got)
	}
	if r.Cycles() != 0 {
		t.Errorf("Cycles = %d, want 0 while load-gated", r.Cycles())
	}
}

// TestReclaimerStopIdempotent tests the signal-then-join shutdown path
func TestReclaimerStopIdempotent(t *testing.T) {
	r := NewReclaimer(NewManager(), DefaultReclaimerConfig())
	r.Start()
	r.Start() // Second start is a no-op.
	r.Stop()
}
