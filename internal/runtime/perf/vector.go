package perf

// chunk is the unroll width for the bulk helpers. Slices shorter than
// one chunk take the scalar path and are counted as such.
const chunk = 8

// AddVectors writes a[i]+b[i] into dst element-wise. All three slices
// must have the same length; the processed element counts land on the
// monitor.
func (m *Monitor) AddVectors(dst, a, b []float32) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(dst) < n {
		n = len(dst)
	}

	i := 0
	for ; i+chunk <= n; i += chunk {
		dst[i+0] = a[i+0] + b[i+0]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
		dst[i+4] = a[i+4] + b[i+4]
		dst[i+5] = a[i+5] + b[i+5]
		dst[i+6] = a[i+6] + b[i+6]
		dst[i+7] = a[i+7] + b[i+7]
	}
	if i > 0 {
		m.RecordVectorOps(uint64(i))
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
		m.RecordScalarOps(1)
	}
}

// DotProduct returns the inner product of a and b over their common
// length.
func (m *Monitor) DotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float32
	i := 0
	for ; i+chunk <= n; i += chunk {
		sum += a[i+0]*b[i+0] + a[i+1]*b[i+1] +
			a[i+2]*b[i+2] + a[i+3]*b[i+3] +
			a[i+4]*b[i+4] + a[i+5]*b[i+5] +
			a[i+6]*b[i+6] + a[i+7]*b[i+7]
	}
	if i > 0 {
		m.RecordVectorOps(uint64(i))
	}
	for ; i < n; i++ {
		sum += a[i] * b[i]
		m.RecordScalarOps(1)
	}
	return sum
}
