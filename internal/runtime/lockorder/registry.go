// Package lockorder implements a process-wide lock acquisition order
// registry. Each lock name is assigned a hierarchy level at first
// registration; a goroutine may only acquire locks in non-decreasing level
// order. Violations are refused before the real lock is touched, turning a
// potential deadlock into a synchronous error.
//
// The check is deliberately conservative and approximate: it enforces the
// established total order and catches direct two-party mutual waits, not
// arbitrary N-goroutine cycles.
package lockorder

import (
	"sync"
	"time"
)

// lockInfo records the live owner of an acquired lock.
type lockInfo struct {
	name       string
	owner      int64
	acquiredAt time.Time
}

// DeadlockReport summarizes hierarchy analysis over the live bookkeeping.
type DeadlockReport struct {
	Detected         bool     `json:"detected"`
	InvolvedLocks    []string `json:"involvedLocks,omitempty"`
	InvolvedRoutines []int64  `json:"involvedRoutines,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// Registry tracks the lock hierarchy and per-goroutine held-lock sequences.
// All bookkeeping is guarded by one exclusive mutex.
type Registry struct {
	mu        sync.Mutex
	hierarchy map[string]int      // Lock name -> level, assigned once, never reused
	nextLevel int                 // Monotonic level counter
	held      map[int64][]string  // Goroutine id -> ordered held lock names
	owners    map[string]lockInfo // Lock name -> live owner
}

// NewRegistry creates an empty lock-order registry.
func NewRegistry() *Registry {
	return &Registry{
		hierarchy: make(map[string]int),
		held:      make(map[int64][]string),
		owners:    make(map[string]lockInfo),
	}
}

// Register assigns the next unused hierarchy level to name if it has none.
// Registration is idempotent; a level is never reassigned or reused.
func (r *Registry) Register(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registerLocked(name)
}

func (r *Registry) registerLocked(name string) int {
	level, exists := r.hierarchy[name]
	if !exists {
		level = r.nextLevel
		r.hierarchy[name] = level
		r.nextLevel++
	}
	return level
}

// Level reports the hierarchy level assigned to name.
func (r *Registry) Level(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	level, exists := r.hierarchy[name]
	return level, exists
}

// CanAcquire reports whether the calling goroutine may take the named lock
// without violating the established order. An unknown name is registered at
// the next level. The answer is false when the caller already holds a lock
// with a strictly higher level, or when a direct two-party wait cycle is
// detected.
func (r *Registry) CanAcquire(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	gid := goroutineID()
	target := r.registerLocked(name)

	for _, heldName := range r.held[gid] {
		if level, exists := r.hierarchy[heldName]; exists && level > target {
			return false
		}
	}

	return !r.wouldCycleLocked(gid, name)
}

// wouldCycleLocked detects the trivial two-party cycle: the target lock is
// owned by another goroutine that also holds a lock the caller holds.
func (r *Registry) wouldCycleLocked(gid int64, target string) bool {
	info, owned := r.owners[target]
	if !owned || info.owner == gid {
		return false
	}

	ours := r.held[gid]
	theirs := r.held[info.owner]

	for _, a := range ours {
		for _, b := range theirs {
			if a == b {
				return true
			}
		}
	}

	return false
}

// RegisterAcquisition records a successful acquisition by the caller.
func (r *Registry) RegisterAcquisition(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gid := goroutineID()
	r.registerLocked(name)
	r.held[gid] = append(r.held[gid], name)
	r.owners[name] = lockInfo{name: name, owner: gid, acquiredAt: time.Now()}
}

// RegisterRelease removes the lock from the caller's held sequence and
// clears its live owner entry.
func (r *Registry) RegisterRelease(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gid := goroutineID()

	locks := r.held[gid]
	for i := len(locks) - 1; i >= 0; i-- {
		if locks[i] == name {
			locks = append(locks[:i], locks[i+1:]...)
			break
		}
	}

	if len(locks) == 0 {
		delete(r.held, gid)
	} else {
		r.held[gid] = locks
	}

	delete(r.owners, name)
}

// HeldByCaller returns the calling goroutine's held-lock sequence.
func (r *Registry) HeldByCaller() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	locks := r.held[goroutineID()]
	out := make([]string, len(locks))
	copy(out, locks)
	return out
}

// Analyze scans every live held-lock sequence for hierarchy violations and
// reports the first one found. A clean report means no goroutine currently
// holds locks out of order.
func (r *Registry) Analyze() DeadlockReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	for gid, locks := range r.held {
		for i := 0; i+1 < len(locks); i++ {
			level1 := r.hierarchy[locks[i]]
			level2 := r.hierarchy[locks[i+1]]

			if level1 > level2 {
				involved := make([]string, len(locks))
				copy(involved, locks)

				return DeadlockReport{
					Detected:         true,
					InvolvedLocks:    involved,
					InvolvedRoutines: []int64{gid},
					Description:      "lock hierarchy violation detected",
				}
			}
		}
	}

	return DeadlockReport{}
}
