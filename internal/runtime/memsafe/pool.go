package memsafe

import "sync"

// bytePool recycles byte buffers through size-classed sync.Pool instances.
// Requests larger than the largest class fall through to direct allocation.
type bytePool struct {
	classes []uintptr
	pools   map[uintptr]*sync.Pool
}

func newBytePool(classes []uintptr) *bytePool {
	bp := &bytePool{
		classes: classes,
		pools:   make(map[uintptr]*sync.Pool, len(classes)),
	}

	for _, class := range classes {
		size := class
		bp.pools[size] = &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		}
	}

	return bp
}

// get returns a buffer of at least size bytes and the class it came from
// (0 when allocated directly).
func (bp *bytePool) get(size uintptr) ([]byte, uintptr) {
	class := bp.bestClass(size)
	if class == 0 {
		return make([]byte, size), 0
	}

	buf := bp.pools[class].Get().(*[]byte)
	return *buf, class
}

// put returns a class-sized buffer for reuse.
func (bp *bytePool) put(buf []byte, class uintptr) {
	pool, exists := bp.pools[class]
	if !exists || uintptr(cap(buf)) < class {
		return
	}

	recycled := buf[:class]
	pool.Put(&recycled)
}

// bestClass finds the smallest class that can hold size bytes.
func (bp *bytePool) bestClass(size uintptr) uintptr {
	var best uintptr
	for _, class := range bp.classes {
		if class >= size && (best == 0 || class < best) {
			best = class
		}
	}
	return best
}
