// Package errors provides standardized error messaging for the Aster runtime core.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory represents different categories of runtime errors.
type ErrorCategory string

const (
	CategoryMemory  ErrorCategory = "MEMORY"
	CategoryRuntime ErrorCategory = "RUNTIME"
)

// StandardError provides a consistent error format for the runtime core.
// Suggestions carry remedies the caller can act on; Context names the
// subsystem operation that rejected the request.
type StandardError struct {
	Category    ErrorCategory
	Code        string
	Message     string
	Context     string
	Suggestions []string
	Caller      string
}

// Error implements the error interface.
func (e *StandardError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", e.Category, e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (%s)", e.Context)
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(&b, "; suggestion: %s", s)
	}
	return b.String()
}

// WithContext sets the operation context and returns the error for chaining.
func (e *StandardError) WithContext(ctx string) *StandardError {
	e.Context = ctx
	return e
}

// WithSuggestion appends an actionable remedy and returns the error for chaining.
func (e *StandardError) WithSuggestion(s string) *StandardError {
	e.Suggestions = append(e.Suggestions, s)
	return e
}

// NewStandardError creates a new standardized error.
func NewStandardError(category ErrorCategory, code, message string) *StandardError {
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Caller:   caller,
	}
}

// NewMemoryError creates a memory-safety violation error.
func NewMemoryError(code, message string) *StandardError {
	return NewStandardError(CategoryMemory, code, message)
}

// NewRuntimeError creates a runtime refusal error.
func NewRuntimeError(code, message string) *StandardError {
	return NewStandardError(CategoryRuntime, code, message)
}

// IsMemoryError reports whether err is a memory-safety violation.
func IsMemoryError(err error) bool {
	se, ok := err.(*StandardError)
	return ok && se.Category == CategoryMemory
}

// IsRuntimeError reports whether err is a runtime refusal.
func IsRuntimeError(err error) bool {
	se, ok := err.(*StandardError)
	return ok && se.Category == CategoryRuntime
}

// Common error constructors.

// IndexOutOfBounds reports an out-of-range access on a guarded handle.
func IndexOutOfBounds(index, length int) *StandardError {
	return NewStandardError(CategoryMemory, "INDEX_OUT_OF_BOUNDS",
		fmt.Sprintf("index %d out of bounds for length %d", index, length)).
		WithSuggestion("check element count before accessing").
		WithSuggestion("use TryAt for bounds-checked optional access")
}

// AllocationTooLarge reports an allocation request past the safety ceiling.
func AllocationTooLarge(requested, limit uintptr) *StandardError {
	return NewStandardError(CategoryMemory, "ALLOCATION_TOO_LARGE",
		fmt.Sprintf("allocation of %d bytes exceeds safety limit of %d bytes", requested, limit)).
		WithSuggestion("reduce allocation size").
		WithSuggestion("use streaming or chunked processing")
}

// AllocationFailed reports a failed backing allocation.
func AllocationFailed(size uintptr) *StandardError {
	return NewStandardError(CategoryMemory, "ALLOCATION_FAILED",
		fmt.Sprintf("allocation of %d bytes failed", size)).
		WithSuggestion("reduce memory usage").
		WithSuggestion("check system memory availability")
}

// InvalidHandle reports an operation through a released or nil handle.
func InvalidHandle(operation string) *StandardError {
	return NewStandardError(CategoryMemory, "INVALID_HANDLE",
		fmt.Sprintf("invalid handle in %s", operation)).
		WithSuggestion("do not use a handle after Release")
}

// DeadlockRisk reports a lock acquisition refused by the order registry.
func DeadlockRisk(lockName string) *StandardError {
	return NewStandardError(CategoryRuntime, "DEADLOCK_RISK",
		fmt.Sprintf("potential deadlock detected for lock %q", lockName)).
		WithSuggestion("review lock acquisition order").
		WithSuggestion("consider a timed acquisition instead")
}

// PoolOverwhelmed reports that no worker could accept a submission.
func PoolOverwhelmed() *StandardError {
	return NewStandardError(CategoryRuntime, "POOL_OVERWHELMED",
		"all workers are overwhelmed and need rest").
		WithSuggestion("reduce task submission rate").
		WithSuggestion("wait for workers to finish their breaks")
}

// PoolShutDown reports a queued task discarded because the pool stopped
// before the task started.
func PoolShutDown() *StandardError {
	return NewStandardError(CategoryRuntime, "POOL_SHUT_DOWN",
		"pool shut down before the task started").
		WithSuggestion("wait for pending futures before calling Shutdown")
}

// AssignmentRefused reports a submission that lost the race against a
// worker's own wellness state.
func AssignmentRefused(workerID int) *StandardError {
	return NewStandardError(CategoryRuntime, "ASSIGNMENT_REFUSED",
		fmt.Sprintf("could not assign task: worker %d needs a break", workerID)).
		WithSuggestion("retry after a short delay")
}
