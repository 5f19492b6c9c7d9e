// Package perf collects coarse performance counters for the runtime:
// cache and branch miss estimates, and how much numeric work went
// through the chunked vector helpers versus plain scalar loops. The
// counters feed threshold-driven tuning suggestions in the health
// report.
package perf

import (
	"sync/atomic"
	"time"
)

// Report is a snapshot of the collected counters plus derived figures.
type Report struct {
	CacheMisses       uint64    `json:"cache_misses"`
	BranchMisses      uint64    `json:"branch_misses"`
	VectorOps         uint64    `json:"vector_ops"`
	ScalarOps         uint64    `json:"scalar_ops"`
	VectorUtilization float64   `json:"vector_utilization"`
	Suggestions       []string  `json:"suggestions,omitempty"`
	CollectedAt       time.Time `json:"collected_at"`
}

// MonitorConfig sets the thresholds that trigger suggestions.
type MonitorConfig struct {
	CacheMissLimit  uint64  // Misses above this suggest locality work.
	BranchMissLimit uint64  // Misses above this suggest branch shaping.
	MinUtilization  float64 // Vector share below this suggests batching.
}

// DefaultMonitorConfig returns the standard thresholds.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CacheMissLimit:  1000,
		BranchMissLimit: 1000,
		MinUtilization:  0.5,
	}
}

// Monitor accumulates counters. All methods are safe for concurrent
// use.
type Monitor struct {
	config       MonitorConfig
	cacheMisses  atomic.Uint64
	branchMisses atomic.Uint64
	vectorOps    atomic.Uint64
	scalarOps    atomic.Uint64
}

// NewMonitor creates a monitor with the given thresholds.
func NewMonitor(config MonitorConfig) *Monitor {
	return &Monitor{config: config}
}

// RecordCacheMisses adds to the cache-miss estimate.
func (m *Monitor) RecordCacheMisses(n uint64) {
	m.cacheMisses.Add(n)
}

// RecordBranchMisses adds to the branch-miss estimate.
func (m *Monitor) RecordBranchMisses(n uint64) {
	m.branchMisses.Add(n)
}

// RecordVectorOps counts elements processed through chunked helpers.
func (m *Monitor) RecordVectorOps(n uint64) {
	m.vectorOps.Add(n)
}

// RecordScalarOps counts elements processed element-at-a-time.
func (m *Monitor) RecordScalarOps(n uint64) {
	m.scalarOps.Add(n)
}

// CacheMisses returns the current cache-miss estimate.
func (m *Monitor) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// Utilization returns the share of numeric work done through chunked
// helpers, in [0,1]. Zero work reports zero.
func (m *Monitor) Utilization() float64 {
	vector := m.vectorOps.Load()
	total := vector + m.scalarOps.Load()
	if total == 0 {
		return 0
	}
	return float64(vector) / float64(total)
}

// Reset clears every counter.
func (m *Monitor) Reset() {
	m.cacheMisses.Store(0)
	m.branchMisses.Store(0)
	m.vectorOps.Store(0)
	m.scalarOps.Store(0)
}

// Snapshot builds a report with suggestions for any threshold that has
// been crossed.
func (m *Monitor) Snapshot() Report {
	report := Report{
		CacheMisses:  m.cacheMisses.Load(),
		BranchMisses: m.branchMisses.Load(),
		VectorOps:    m.vectorOps.Load(),
		ScalarOps:    m.scalarOps.Load(),
		CollectedAt:  time.Now(),
	}
	report.VectorUtilization = m.Utilization()

	if report.CacheMisses > m.config.CacheMissLimit {
		report.Suggestions = append(report.Suggestions,
			"high cache miss count; consider restructuring hot data for locality")
	}
	if report.BranchMisses > m.config.BranchMissLimit {
		report.Suggestions = append(report.Suggestions,
			"high branch miss count; consider sorting inputs or flattening branches")
	}
	if total := report.VectorOps + report.ScalarOps; total > 0 && report.VectorUtilization < m.config.MinUtilization {
		report.Suggestions = append(report.Suggestions,
			"low vector utilization; route bulk numeric work through the chunked helpers")
	}
	return report
}
