// Package coop implements a cooperative worker pool. Workers track their
// own wellness (consecutive tasks, accumulated stress, time since the
// last break) and may refuse new work until they have rested; the pool
// routes tasks toward the least stressed worker instead of forcing
// assignments.
package coop

import (
	"runtime"
	"time"
)

// Config controls pool sizing and the wellness model.
type Config struct {
	Workers       int           // Number of workers (default NumCPU).
	QueueCapacity int           // Per-worker queue depth.
	BreakDuration time.Duration // How long a mandatory break lasts.

	MaxConsecutive int           // Tasks without a break before one is forced.
	MaxRunDuration time.Duration // Wall time without a break before one is forced.
	MaxStress      float64       // Stress level that forces a break.

	StressThreshold float64       // Preferred-assignment ceiling.
	StressIncrement float64       // Added per completion inside the window.
	StressDecay     float64       // Removed per completion outside the window.
	StressWindow    time.Duration // Recent-work window after a break.
}

func defaultConfig() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		QueueCapacity:   16,
		BreakDuration:   100 * time.Millisecond,
		MaxConsecutive:  50,
		MaxRunDuration:  2 * time.Hour,
		MaxStress:       0.8,
		StressThreshold: 0.6,
		StressIncrement: 0.1,
		StressDecay:     0.05,
		StressWindow:    time.Minute,
	}
}

// Option configures a Pool.
type Option func(*Config)

// WithWorkers sets the number of workers.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithQueueCapacity sets the per-worker queue depth.
func WithQueueCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueCapacity = n
		}
	}
}

// WithBreakDuration sets how long a mandatory break lasts.
func WithBreakDuration(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.BreakDuration = d
		}
	}
}

// WithBreakTriggers sets the three conditions that force a break.
func WithBreakTriggers(consecutive int, runDuration time.Duration, stress float64) Option {
	return func(c *Config) {
		if consecutive > 0 {
			c.MaxConsecutive = consecutive
		}
		if runDuration > 0 {
			c.MaxRunDuration = runDuration
		}
		if stress > 0 {
			c.MaxStress = stress
		}
	}
}

// WithStressRates sets the per-completion stress increment and decay.
func WithStressRates(increment, decay float64) Option {
	return func(c *Config) {
		if increment > 0 {
			c.StressIncrement = increment
		}
		if decay > 0 {
			c.StressDecay = decay
		}
	}
}

// WithStressThreshold sets the ceiling for preferred assignment.
func WithStressThreshold(threshold float64) Option {
	return func(c *Config) {
		if threshold > 0 {
			c.StressThreshold = threshold
		}
	}
}
