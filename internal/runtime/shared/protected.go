// Package shared provides Protected, a named wrapper that forces every
// access to a shared value through a reader-writer lock. Plain Get/Set
// cover simple cases; OptimisticUpdate and TryUpdateFor cover contended
// read-modify-write without holding the lock across the computation.
package shared

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// AccessStats reports how a protected value has been used.
type AccessStats struct {
	Name      string    `json:"name"`
	Reads     uint64    `json:"reads"`
	Writes    uint64    `json:"writes"`
	CreatedAt time.Time `json:"created_at"`
}

// Protected guards a value of type T behind a reader-writer lock.
type Protected[T any] struct {
	mu        sync.RWMutex
	value     T
	name      string
	equal     func(a, b T) bool
	reads     atomic.Uint64
	writes    atomic.Uint64
	createdAt time.Time
}

// ProtectedOption configures a Protected value.
type ProtectedOption[T any] func(*Protected[T])

// WithComparator replaces the deep-equality check used by
// OptimisticUpdate. Required for types reflect.DeepEqual cannot compare
// meaningfully, cheap for types where == suffices.
func WithComparator[T any](equal func(a, b T) bool) ProtectedOption[T] {
	return func(p *Protected[T]) {
		p.equal = equal
	}
}

// NewProtected wraps an initial value.
func NewProtected[T any](name string, initial T, opts ...ProtectedOption[T]) *Protected[T] {
	p := &Protected[T]{
		value:     initial,
		name:      name,
		equal:     func(a, b T) bool { return reflect.DeepEqual(a, b) },
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SafeRead runs the reader under the read lock and returns its result.
func (p *Protected[T]) SafeRead(reader func(T) any) any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.reads.Add(1)
	return reader(p.value)
}

// SafeWrite runs the writer under the write lock and returns its result.
// The writer may mutate the value in place.
func (p *Protected[T]) SafeWrite(writer func(*T) any) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes.Add(1)
	return writer(&p.value)
}

// Get returns a copy of the current value.
func (p *Protected[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.reads.Add(1)
	return p.value
}

// Set replaces the value.
func (p *Protected[T]) Set(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes.Add(1)
	p.value = v
}

// OptimisticUpdate snapshots the value, computes the update outside any
// lock, then commits only if the value has not changed in between. Each
// failed attempt backs off a little longer before the next snapshot.
// Returns false once maxRetries attempts have all lost the race.
func (p *Protected[T]) OptimisticUpdate(update func(T) T, maxRetries int) bool {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		snapshot := p.Get()
		next := update(snapshot)

		p.mu.Lock()
		if p.equal(p.value, snapshot) {
			p.value = next
			p.writes.Add(1)
			p.mu.Unlock()
			return true
		}
		p.mu.Unlock()

		time.Sleep(time.Duration(attempt) * 100 * time.Microsecond)
	}
	return false
}

// TryUpdateFor polls for the write lock until the deadline, applying
// the update on first acquisition. Returns false if the lock never
// became available in time.
func (p *Protected[T]) TryUpdateFor(update func(T) T, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		if p.mu.TryLock() {
			p.value = update(p.value)
			p.writes.Add(1)
			p.mu.Unlock()
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Microsecond)
	}
}

// Name returns the identifier given at construction.
func (p *Protected[T]) Name() string {
	return p.name
}

// Stats returns the access counters.
func (p *Protected[T]) Stats() AccessStats {
	return AccessStats{
		Name:      p.name,
		Reads:     p.reads.Load(),
		Writes:    p.writes.Load(),
		CreatedAt: p.createdAt,
	}
}
