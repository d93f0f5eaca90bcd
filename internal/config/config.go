package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/me/batchsim/pkg/model"
)

// DefaultCapacity is the process table size used when none is configured.
const DefaultCapacity = 20

// SimConfig holds the parameters of one simulation run.
type SimConfig struct {
	Capacity int        `json:"capacity" yaml:"capacity"`   // Process table size (default 20)
	Quantum  model.Tick `json:"quantum" yaml:"quantum"`     // Time slice; 0 runs every dispatch to completion or I/O
	MaxTicks model.Tick `json:"max_ticks" yaml:"max_ticks"` // Abort the run past this time; 0 means no limit
	Seed     int64      `json:"seed" yaml:"seed"`           // Recorded with the run for generated workloads
}

// DefaultSimConfig returns sensible defaults.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Capacity: DefaultCapacity,
		Quantum:  4,
		MaxTicks: 1_000_000,
	}
}

// Merge returns c with every non-zero field of o applied on top.
func (c SimConfig) Merge(o SimConfig) SimConfig {
	if o.Capacity != 0 {
		c.Capacity = o.Capacity
	}
	if o.Quantum != 0 {
		c.Quantum = o.Quantum
	}
	if o.MaxTicks != 0 {
		c.MaxTicks = o.MaxTicks
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	return c
}

// Validate checks the ranges of c.
func (c SimConfig) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	return nil
}

// RunConfig converts c to the form stored with a run.
func (c SimConfig) RunConfig() model.RunConfig {
	return model.RunConfig{
		Capacity: c.Capacity,
		Quantum:  c.Quantum,
		MaxTicks: c.MaxTicks,
		Seed:     c.Seed,
	}
}

// ServerConfig holds configuration for the batchsim API server.
type ServerConfig struct {
	Addr      string // Listen address (default ":8080")
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: text, json
	DBPath    string // SQLite database path (default ~/.batchsim/runs.db, ":memory:" for testing)
	Sim       SimConfig

	// MaxConcurrentRuns bounds simulations executing at once; 0 is unlimited.
	MaxConcurrentRuns int
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
		Sim:               DefaultSimConfig(),
		MaxConcurrentRuns: runtime.NumCPU(),
	}
}

// DefaultDBPath returns ~/.batchsim/runs.db, creating the directory.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".batchsim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "runs.db"), nil
}
