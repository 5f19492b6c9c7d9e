package perf

import (
	"math"
	"strings"
	"testing"
)

// TestCounters tests recording and reset
func TestCounters(t *testing.T) {
	m := NewMonitor(DefaultMonitorConfig())

	m.RecordCacheMisses(10)
	m.RecordCacheMisses(5)
	m.RecordBranchMisses(3)
	m.RecordVectorOps(80)
	m.RecordScalarOps(20)

	if got := m.CacheMisses(); got != 15 {
		t.Errorf("CacheMisses = %d, want 15", got)
	}
	if got := m.Utilization(); got != 0.8 {
		t.Errorf("Utilization = %v, want 0.8", got)
	}

	m.Reset()
	if got := m.CacheMisses(); got != 0 {
		t.Errorf("CacheMisses after Reset = %d", got)
	}
	if got := m.Utilization(); got != 0 {
		t.Errorf("Utilization after Reset = %v", got)
	}
}

// TestSuggestions tests threshold-driven advice
func TestSuggestions(t *testing.T) {
	cfg := MonitorConfig{CacheMissLimit: 100, BranchMissLimit: 100, MinUtilization: 0.5}

	t.Run("QuietMonitor", func(t *testing.T) {
		m := NewMonitor(cfg)
		if report := m.Snapshot(); len(report.Suggestions) != 0 {
			t.Errorf("Suggestions = %v, want none", report.Suggestions)
		}
	})

	t.Run("CacheMisses", func(t *testing.T) {
		m := NewMonitor(cfg)
		m.RecordCacheMisses(101)
		report := m.Snapshot()
		if len(report.Suggestions) != 1 || !strings.Contains(report.Suggestions[0], "cache") {
			t.Errorf("Suggestions = %v", report.Suggestions)
		}
	})

	t.Run("LowUtilization", func(t *testing.T) {
		m := NewMonitor(cfg)
		m.RecordVectorOps(10)
		m.RecordScalarOps(90)
		report := m.Snapshot()
		if len(report.Suggestions) != 1 || !strings.Contains(report.Suggestions[0], "utilization") {
			t.Errorf("Suggestions = %v", report.Suggestions)
		}
	})

	t.Run("NoWorkNoUtilizationAdvice", func(t *testing.T) {
		m := NewMonitor(cfg)
		if report := m.Snapshot(); report.VectorUtilization != 0 || len(report.Suggestions) != 0 {
			t.Errorf("report = %+v, want quiet", report)
		}
	})
}

// TestAddVectors tests element-wise addition and counter attribution
func TestAddVectors(t *testing.T) {
	m := NewMonitor(DefaultMonitorConfig())

	const n = 20 // Two full chunks plus a scalar tail of four.
	a := make([]float32, n)
	b := make([]float32, n)
	dst := make([]float32, n)
	for i := range a {
		a[i] = float32(i)
		b[i] = float32(2 * i)
	}

	m.AddVectors(dst, a, b)

	for i := range dst {
		if want := float32(3 * i); dst[i] != want {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}

	report := m.Snapshot()
	if report.VectorOps != 16 {
		t.Errorf("VectorOps = %d, want 16", report.VectorOps)
	}
	if report.ScalarOps != 4 {
		t.Errorf("ScalarOps = %d, want 4", report.ScalarOps)
	}
}

// TestDotProduct tests the inner product over mismatched lengths
func TestDotProduct(t *testing.T) {
	m := NewMonitor(DefaultMonitorConfig())

	t.Run("Known", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{4, 5, 6}
		if got := m.DotProduct(a, b); got != 32 {
			t.Errorf("DotProduct = %v, want 32", got)
		}
	})

	t.Run("CommonLength", func(t *testing.T) {
		a := []float32{1, 1, 1, 1, 1}
		b := []float32{2, 2}
		if got := m.DotProduct(a, b); got != 4 {
			t.Errorf("DotProduct = %v, want 4", got)
		}
	})

	t.Run("LargeAgainstScalar", func(t *testing.T) {
		const n = 1000
		a := make([]float32, n)
		b := make([]float32, n)
		var want float64
		for i := range a {
			a[i] = float32(i) * 0.25
			b[i] = float32(n-i) * 0.5
			want += float64(a[i]) * float64(b[i])
		}
		got := float64(m.DotProduct(a, b))
		if math.Abs(got-want)/want > 1e-4 {
			t.Errorf("DotProduct = %v, want about %v", got, want)
		}
	})
}
