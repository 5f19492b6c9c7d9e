package shared

import (
	"sync"
	"testing"
	"time"
)

// TestSafeReadWrite tests the basic locked accessors
func TestSafeReadWrite(t *testing.T) {
	p := NewProtected("counter", 10)

	got := p.SafeRead(func(v int) any { return v * 2 })
	if got != 20 {
		t.Errorf("SafeRead = %v, want 20", got)
	}

	got = p.SafeWrite(func(v *int) any {
		*v += 5
		return *v
	})
	if got != 15 {
		t.Errorf("SafeWrite = %v, want 15", got)
	}
	if p.Get() != 15 {
		t.Errorf("Get = %v, want 15", p.Get())
	}

	p.Set(99)
	if p.Get() != 99 {
		t.Errorf("Get = %v after Set, want 99", p.Get())
	}
}

// TestConcurrentWrites tests that parallel SafeWrite increments never
// lose updates
func TestConcurrentWrites(t *testing.T) {
	const writers = 8
	const perWriter = 100

	p := NewProtected("total", 0)

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				p.SafeWrite(func(v *int) any {
					*v++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if got := p.Get(); got != writers*perWriter {
		t.Errorf("total = %d, want %d", got, writers*perWriter)
	}
}

// TestOptimisticUpdate tests snapshot-compare-commit semantics
func TestOptimisticUpdate(t *testing.T) {
	t.Run("Uncontended", func(t *testing.T) {
		p := NewProtected("value", 10)
		if !p.OptimisticUpdate(func(v int) int { return v + 5 }, 3) {
			t.Fatal("uncontended update should succeed")
		}
		if p.Get() != 15 {
			t.Errorf("value = %d, want 15", p.Get())
		}
	})

	t.Run("TwoRacingUpdates", func(t *testing.T) {
		// +5 and *2 racing from 10 must serialize to 30 or 25, never
		// a torn result.
		p := NewProtected("value", 10)

		var wg sync.WaitGroup
		wg.Add(2)
		results := make([]bool, 2)
		go func() {
			defer wg.Done()
			results[0] = p.OptimisticUpdate(func(v int) int { return v + 5 }, 50)
		}()
		go func() {
			defer wg.Done()
			results[1] = p.OptimisticUpdate(func(v int) int { return v * 2 }, 50)
		}()
		wg.Wait()

		if !results[0] || !results[1] {
			t.Fatalf("updates did not both commit: %v", results)
		}
		if got := p.Get(); got != 30 && got != 25 {
			t.Errorf("value = %d, want 30 or 25", got)
		}
	})

	t.Run("ExhaustedRetries", func(t *testing.T) {
		p := NewProtected("value", 0)
		// The update itself perturbs the value through Set, so the
		// commit comparison always fails.
		ok := p.OptimisticUpdate(func(v int) int {
			p.Set(v + 1)
			return v + 100
		}, 2)
		if ok {
			t.Error("update should fail once retries are exhausted")
		}
	})

	t.Run("CustomComparator", func(t *testing.T) {
		type score struct{ points, noise int }
		// Only points participate in the conflict check.
		p := NewProtected("score", score{points: 1, noise: 7},
			WithComparator[score](func(a, b score) bool { return a.points == b.points }))
		if !p.OptimisticUpdate(func(s score) score {
			s.points += 2
			return s
		}, 3) {
			t.Fatal("update should succeed")
		}
		if got := p.Get(); got.points != 3 {
			t.Errorf("points = %d, want 3", got.points)
		}
	})
}

// TestTryUpdateFor tests the bounded-wait update
func TestTryUpdateFor(t *testing.T) {
	t.Run("Free", func(t *testing.T) {
		p := NewProtected("value", 1)
		if !p.TryUpdateFor(func(v int) int { return v + 1 }, 50*time.Millisecond) {
			t.Fatal("update on a free lock should succeed")
		}
		if p.Get() != 2 {
			t.Errorf("value = %d, want 2", p.Get())
		}
	})

	t.Run("HeldPastDeadline", func(t *testing.T) {
		p := NewProtected("value", 1)
		p.mu.Lock()
		done := make(chan bool)
		go func() {
			done <- p.TryUpdateFor(func(v int) int { return v + 1 }, 20*time.Millisecond)
		}()
		ok := <-done
		p.mu.Unlock()
		if ok {
			t.Error("update should time out while the lock is held")
		}
		if p.Get() != 1 {
			t.Errorf("value = %d, want untouched 1", p.Get())
		}
	})
}

// TestStats tests the access counters
func TestStats(t *testing.T) {
	p := NewProtected("tracked", 0)

	p.Get()
	p.SafeRead(func(int) any { return nil })
	p.Set(1)
	p.SafeWrite(func(*int) any { return nil })
	p.OptimisticUpdate(func(v int) int { return v }, 1)

	stats := p.Stats()
	if stats.Name != "tracked" {
		t.Errorf("Name = %q", stats.Name)
	}
	if stats.Reads != 3 { // Get, SafeRead, and the optimistic snapshot.
		t.Errorf("Reads = %d, want 3", stats.Reads)
	}
	if stats.Writes != 3 { // Set, SafeWrite, optimistic commit.
		t.Errorf("Writes = %d, want 3", stats.Writes)
	}
	if stats.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

// TestMapValue tests Protected with a reference type and in-place
// mutation through SafeWrite
func TestMapValue(t *testing.T) {
	p := NewProtected("index", map[string]int{})

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d"}
	wg.Add(len(keys))
	for _, k := range keys {
		k := k
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p.SafeWrite(func(m *map[string]int) any {
					(*m)[k]++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	for _, k := range keys {
		if got := p.SafeRead(func(m map[string]int) any { return m[k] }); got != 100 {
			t.Errorf("m[%q] = %v, want 100", k, got)
		}
	}
}
