package runtime

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
)

// APIVersion is the version of the runtime surface this build exposes.
// Config files can pin a constraint against it.
const APIVersion = "1.2.0"

// HealthThresholds are the limits Health checks against. They can be
// changed on a live Runtime through config reload.
type HealthThresholds struct {
	MemoryBytes   uint64  `json:"memory_bytes"`
	AverageStress float64 `json:"average_stress"`
	CacheMisses   uint64  `json:"cache_misses"`
}

// Config configures a Runtime. The zero value is usable; applyDefaults
// fills anything left unset.
type Config struct {
	// RequireAPI is an optional semver constraint the running APIVersion
	// must satisfy, e.g. ">= 1.0, < 2".
	RequireAPI string `json:"require_api,omitempty"`

	MaxAllocationBytes uint64 `json:"max_allocation_bytes,omitempty"`

	ReclaimInterval time.Duration `json:"reclaim_interval,omitempty"`
	LoadThreshold   float64       `json:"load_threshold,omitempty"`
	GracePeriod     time.Duration `json:"grace_period,omitempty"`

	Workers       int           `json:"workers,omitempty"`
	QueueCapacity int           `json:"queue_capacity,omitempty"`
	BreakDuration time.Duration `json:"break_duration,omitempty"`

	// DebugAddr enables the diagnostic HTTP endpoint when non-empty,
	// e.g. "127.0.0.1:0".
	DebugAddr string `json:"debug_addr,omitempty"`

	Thresholds HealthThresholds `json:"thresholds"`
}

const (
	defaultMemoryThreshold = 500 << 20
	defaultStressThreshold = 0.7
	defaultMissThreshold   = 1000
)

func (c *Config) applyDefaults() {
	if c.Thresholds.MemoryBytes == 0 {
		c.Thresholds.MemoryBytes = defaultMemoryThreshold
	}
	if c.Thresholds.AverageStress == 0 {
		c.Thresholds.AverageStress = defaultStressThreshold
	}
	if c.Thresholds.CacheMisses == 0 {
		c.Thresholds.CacheMisses = defaultMissThreshold
	}
}

// Validate checks internal consistency and the API constraint.
func (c *Config) Validate() error {
	if c.LoadThreshold < 0 || c.LoadThreshold > 1 {
		return fmt.Errorf("load threshold %v out of range [0,1]", c.LoadThreshold)
	}
	if c.Thresholds.AverageStress < 0 || c.Thresholds.AverageStress > 1 {
		return fmt.Errorf("stress threshold %v out of range [0,1]", c.Thresholds.AverageStress)
	}
	if c.RequireAPI != "" {
		constraint, err := semver.NewConstraint(c.RequireAPI)
		if err != nil {
			return fmt.Errorf("invalid api constraint %q: %w", c.RequireAPI, err)
		}
		current := semver.MustParse(APIVersion)
		if !constraint.Check(current) {
			return fmt.Errorf("api version %s does not satisfy constraint %q", APIVersion, c.RequireAPI)
		}
	}
	return nil
}

// LoadConfig reads a JSON config file, fills defaults, and validates.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
