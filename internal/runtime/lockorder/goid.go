package lockorder

import (
	stdrt "runtime"
	"strconv"
	"strings"
)

// goroutineID extracts the current goroutine's id from a stack header of
// the form "goroutine 123 [running]:". The runtime offers no cheaper
// portable way to identify the calling goroutine.
func goroutineID() int64 {
	var buf [64]byte
	n := stdrt.Stack(buf[:], false)

	header := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if idx := strings.IndexByte(header, ' '); idx > 0 {
		if id, err := strconv.ParseInt(header[:idx], 10, 64); err == nil {
			return id
		}
	}

	return 0
}
