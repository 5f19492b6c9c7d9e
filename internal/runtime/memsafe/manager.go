// Package memsafe provides tracked, bounds-checked memory allocation for the
// Aster runtime. Every allocation is registered in a block table guarded by a
// reader/writer lock and handed out only through guarded handles that permit
// indexed access but no pointer arithmetic of any kind.
package memsafe

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/aster-lang/aster/internal/errors"
)

// MemoryBlock holds metadata for one tracked allocation. Blocks are owned
// exclusively by the Manager and never exposed directly; callers observe
// them through BlockInfo snapshots.
type MemoryBlock struct {
	addr        unsafe.Pointer // Identity of the allocation
	size        uintptr        // Byte size, fixed at creation
	alignment   uintptr        // Alignment of the backing store
	allocatedAt time.Time      // Creation time
	context     string         // Caller-provided allocation context
	refCount    int32          // External references (atomic)
	protected   bool           // Block participates in bounds checking
	poolClass   uintptr        // Size class when backed by the byte pool, 0 otherwise
	backing     any            // Keeps the backing slice reachable
}

// refs returns the current external reference count.
func (b *MemoryBlock) refs() int32 {
	return atomic.LoadInt32(&b.refCount)
}

// BlockInfo is an immutable snapshot of one block's metadata.
type BlockInfo struct {
	Size        uintptr   `json:"size"`
	Alignment   uintptr   `json:"alignment"`
	AllocatedAt time.Time `json:"allocatedAt"`
	Context     string    `json:"context"`
	RefCount    int32     `json:"refCount"`
	Protected   bool      `json:"protected"`
}

// MemoryStats aggregates the block table on demand.
type MemoryStats struct {
	TotalAllocated  uintptr       `json:"totalAllocated"`
	BlockCount      int           `json:"blockCount"`
	LargestBlock    uintptr       `json:"largestBlock"`
	OldestBlockAge  time.Duration `json:"oldestBlockAge"`
	AllocationCount uint64        `json:"allocationCount"`
	FreeCount       uint64        `json:"freeCount"`
}

// Configuration for the tracked allocator.
type Config struct {
	MaxAllocation uintptr   // Safety ceiling for a single allocation
	AlignmentSize uintptr   // Reported alignment of backing stores
	PoolSizes     []uintptr // Size classes for the raw byte pool
}

type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		MaxAllocation: 1024 * 1024 * 1024, // 1GiB safety ceiling
		AlignmentSize: 8,
		PoolSizes:     []uintptr{64, 128, 256, 512, 1024},
	}
}

// Option functions.
func WithMaxAllocation(limit uintptr) Option {
	return func(c *Config) { c.MaxAllocation = limit }
}

func WithAlignment(alignment uintptr) Option {
	return func(c *Config) { c.AlignmentSize = alignment }
}

func WithPoolSizes(sizes []uintptr) Option {
	return func(c *Config) { c.PoolSizes = sizes }
}

// Manager owns the block table. All mutations happen under the exclusive
// lock; statistics and info queries run under the shared lock so concurrent
// readers never block each other.
type Manager struct {
	mu              sync.RWMutex
	blocks          map[unsafe.Pointer]*MemoryBlock
	config          *Config
	pool            *bytePool
	allocationCount uint64
	freeCount       uint64
}

// NewManager creates a tracked allocator.
func NewManager(options ...Option) *Manager {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	return &Manager{
		blocks: make(map[unsafe.Pointer]*MemoryBlock),
		config: config,
		pool:   newBytePool(config.PoolSizes),
	}
}

// Allocate creates a tracked, bounds-checked allocation of count elements of
// type T and returns a guarded handle over it. The request fails when the
// total byte size exceeds the safety ceiling; a request at exactly the
// ceiling succeeds.
func Allocate[T any](m *Manager, count int, context string) (*Handle[T], error) {
	var zero T
	elemSize := unsafe.Sizeof(zero)

	if count < 0 {
		return nil, errors.AllocationFailed(0).WithContext("memory allocation")
	}

	total := uintptr(count) * elemSize
	if total > m.config.MaxAllocation {
		return nil, errors.AllocationTooLarge(total, m.config.MaxAllocation).
			WithContext("memory allocation safety check")
	}

	elems := make([]T, count)

	block := m.register(blockAddr(elems), total, context, 0, elems)

	return &Handle[T]{elems: elems, block: block, mgr: m}, nil
}

// AllocateBytes creates a tracked byte allocation backed by the size-classed
// pool when a class fits, falling back to a direct allocation otherwise.
func (m *Manager) AllocateBytes(n int, context string) (*Handle[byte], error) {
	if n < 0 {
		return nil, errors.AllocationFailed(0).WithContext("byte allocation")
	}

	total := uintptr(n)
	if total > m.config.MaxAllocation {
		return nil, errors.AllocationTooLarge(total, m.config.MaxAllocation).
			WithContext("byte allocation safety check")
	}

	buf, class := m.pool.get(total)
	elems := buf[:n]

	block := m.register(blockAddr(elems), total, context, class, buf)

	return &Handle[byte]{elems: elems, block: block, mgr: m}, nil
}

// register inserts a new block into the table under the exclusive lock.
func (m *Manager) register(addr unsafe.Pointer, size uintptr, context string, poolClass uintptr, backing any) *MemoryBlock {
	block := &MemoryBlock{
		addr:        addr,
		size:        size,
		alignment:   m.config.AlignmentSize,
		allocatedAt: time.Now(),
		context:     context,
		refCount:    1,
		protected:   true,
		poolClass:   poolClass,
		backing:     backing,
	}

	m.mu.Lock()
	m.blocks[addr] = block
	m.allocationCount++
	m.mu.Unlock()

	return block
}

// Deallocate removes the block registered at addr and releases its backing
// store. Deallocating an untracked address is a no-op, not an error.
func (m *Manager) Deallocate(addr unsafe.Pointer) {
	if addr == nil {
		return
	}

	m.mu.Lock()
	block, exists := m.blocks[addr]
	if exists {
		delete(m.blocks, addr)
		m.freeCount++
	}
	m.mu.Unlock()

	if exists {
		m.recycle(block)
	}
}

// recycle returns pool-backed storage to its size class. Direct allocations
// are simply unreferenced and left to the collector.
func (m *Manager) recycle(block *MemoryBlock) {
	if block.poolClass == 0 {
		return
	}
	if buf, ok := block.backing.([]byte); ok {
		m.pool.put(buf, block.poolClass)
	}
}

// BlockInfo returns metadata for the block registered at addr.
func (m *Manager) BlockInfo(addr unsafe.Pointer) (BlockInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	block, exists := m.blocks[addr]
	if !exists {
		return BlockInfo{}, false
	}

	return BlockInfo{
		Size:        block.size,
		Alignment:   block.alignment,
		AllocatedAt: block.allocatedAt,
		Context:     block.context,
		RefCount:    block.refs(),
		Protected:   block.protected,
	}, true
}

// Stats aggregates totals over the live block table under the shared lock.
func (m *Manager) Stats() MemoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MemoryStats{
		BlockCount:      len(m.blocks),
		AllocationCount: m.allocationCount,
		FreeCount:       m.freeCount,
	}

	now := time.Now()
	for _, block := range m.blocks {
		stats.TotalAllocated += block.size
		if block.size > stats.LargestBlock {
			stats.LargestBlock = block.size
		}

		if age := now.Sub(block.allocatedAt); age > stats.OldestBlockAge {
			stats.OldestBlockAge = age
		}
	}

	return stats
}

// reclaimExpired frees up to max blocks whose reference count is zero and
// whose age exceeds grace. It holds the exclusive lock for exactly one pass
// and reports how many blocks it freed.
func (m *Manager) reclaimExpired(max int, grace time.Duration) int {
	if max <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-grace)
	reclaimed := make([]*MemoryBlock, 0, max)

	m.mu.Lock()
	for addr, block := range m.blocks {
		if block.refs() > 0 || block.allocatedAt.After(cutoff) {
			continue
		}

		delete(m.blocks, addr)
		m.freeCount++

		reclaimed = append(reclaimed, block)
		if len(reclaimed) >= max {
			break
		}
	}
	m.mu.Unlock()

	for _, block := range reclaimed {
		m.recycle(block)
	}

	return len(reclaimed)
}

// blockAddr derives the table key for a slice allocation. Zero-length
// allocations get a unique sentinel address so they remain individually
// trackable.
func blockAddr[T any](elems []T) unsafe.Pointer {
	if len(elems) == 0 {
		return unsafe.Pointer(new(byte))
	}
	return unsafe.Pointer(&elems[0])
}
