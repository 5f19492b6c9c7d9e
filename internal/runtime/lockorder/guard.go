package lockorder

import (
	"sync"
	"sync/atomic"

	"github.com/aster-lang/aster/internal/errors"
)

// noCopy triggers a go vet warning when a containing struct is copied.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Guard is a scoped lock acquisition vetted by the order registry. A guard
// that was handed out holds the real lock; calling Unlock releases it and
// deregisters the acquisition. Guards must not be copied, preserving the
// one-to-one correspondence between acquisition and release.
type Guard struct {
	_        noCopy
	mu       sync.Locker
	reg      *Registry
	name     string
	released atomic.Bool
}

// Acquire consults the registry before touching mu. When the registry
// refuses, the error is returned immediately without blocking on the lock;
// otherwise the lock is taken and the acquisition registered.
func Acquire(reg *Registry, mu sync.Locker, name string) (*Guard, error) {
	if !reg.CanAcquire(name) {
		return nil, errors.DeadlockRisk(name).
			WithContext("lock order registry")
	}

	mu.Lock()
	reg.RegisterAcquisition(name)

	return &Guard{mu: mu, reg: reg, name: name}, nil
}

// Unlock releases the real lock and deregisters the acquisition. It is
// idempotent; only the first call has any effect.
func (g *Guard) Unlock() {
	if g == nil || !g.released.CompareAndSwap(false, true) {
		return
	}

	// Deregister before unlocking so the next acquirer never observes a
	// stale owner entry.
	g.reg.RegisterRelease(g.name)
	g.mu.Unlock()
}

// Name reports the registered lock name.
func (g *Guard) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}
