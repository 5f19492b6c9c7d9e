//go:build !linux

package memsafe

// systemLoad approximates load on platforms without a load-average syscall.
func systemLoad() float64 {
	return fallbackLoad()
}
