//go:build linux

package memsafe

import (
	stdrt "runtime"

	"golang.org/x/sys/unix"
)

// systemLoad reports the one-minute load average as a fraction of CPU
// capacity. Values at or above 1.0 mean the machine is saturated.
func systemLoad() float64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return fallbackLoad()
	}

	// Loads are fixed-point with a 16-bit fractional part.
	load1 := float64(info.Loads[0]) / float64(1<<16)

	cpus := stdrt.NumCPU()
	if cpus <= 0 {
		cpus = 1
	}

	return load1 / float64(cpus)
}
