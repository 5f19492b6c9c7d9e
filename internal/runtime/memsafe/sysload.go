package memsafe

import stdrt "runtime"

// fallbackLoad approximates system load from scheduler pressure: runnable
// goroutines relative to available processors, capped at 1.0.
func fallbackLoad() float64 {
	procs := stdrt.GOMAXPROCS(0)
	if procs <= 0 {
		procs = 1
	}

	load := float64(stdrt.NumGoroutine()) / float64(procs*8)
	if load > 1.0 {
		load = 1.0
	}

	return load
}
