package memsafe

import (
	"sync/atomic"
	"unsafe"

	"github.com/aster-lang/aster/internal/errors"
)

// Handle is a bounds-checked view over one tracked allocation. A handle can
// be indexed but never offset: the type deliberately exposes no arithmetic,
// increment, or slicing operations, so an access past the block's bound is
// impossible by construction.
type Handle[T any] struct {
	elems    []T
	block    *MemoryBlock
	mgr      *Manager
	released atomic.Bool
}

// Len reports the element count derived from the block's byte size.
func (h *Handle[T]) Len() int {
	if h == nil || h.block == nil {
		return 0
	}
	return len(h.elems)
}

// At returns the element at index i. Out-of-range access fails with a
// memory error carrying actionable suggestions.
func (h *Handle[T]) At(i int) (T, error) {
	var zero T

	if h == nil || h.block == nil || h.released.Load() {
		return zero, errors.InvalidHandle("indexed read").
			WithContext("guarded handle access")
	}

	if i < 0 || i >= len(h.elems) {
		return zero, errors.IndexOutOfBounds(i, len(h.elems)).
			WithContext("guarded handle access")
	}

	return h.elems[i], nil
}

// TryAt is the optional-returning access path: out-of-range or released
// handles yield an absent result for the caller to branch on.
func (h *Handle[T]) TryAt(i int) (T, bool) {
	var zero T

	if h == nil || h.block == nil || h.released.Load() {
		return zero, false
	}
	if i < 0 || i >= len(h.elems) {
		return zero, false
	}

	return h.elems[i], true
}

// Set writes the element at index i with the same bounds discipline as At.
func (h *Handle[T]) Set(i int, v T) error {
	if h == nil || h.block == nil || h.released.Load() {
		return errors.InvalidHandle("indexed write").
			WithContext("guarded handle access")
	}

	if i < 0 || i >= len(h.elems) {
		return errors.IndexOutOfBounds(i, len(h.elems)).
			WithContext("guarded handle access")
	}

	h.elems[i] = v
	return nil
}

// Addr returns the block identity used by Deallocate and BlockInfo.
func (h *Handle[T]) Addr() unsafe.Pointer {
	if h == nil || h.block == nil {
		return nil
	}
	return h.block.addr
}

// Release drops this handle's reference on the block. A block whose
// reference count reaches zero becomes eligible for background reclamation
// once its grace period expires. Release is idempotent.
func (h *Handle[T]) Release() {
	if h == nil || h.block == nil {
		return
	}
	if h.released.CompareAndSwap(false, true) {
		atomic.AddInt32(&h.block.refCount, -1)
	}
}
