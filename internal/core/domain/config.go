package domain

import (
	"runtime"
	"time"
)

// Timeouts are the per-operation budgets of dispatched jobs.
type Timeouts struct {
	Load     time.Duration
	Resolve  time.Duration
	Complete time.Duration
}

// WorkerConfig configures the external worker processes.
type WorkerConfig struct {
	// Command is the argv used to start one worker process per job.
	Command []string
	// PoolSize is the maximum number of concurrently running jobs.
	PoolSize int
}

// Config is the resolved workspace configuration.
type Config struct {
	// Path is the file the configuration was read from, empty for defaults.
	Path     string
	Root     string
	Search   SearchConfig
	Worker   WorkerConfig
	Timeouts Timeouts
	Debounce time.Duration
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig(root string) *Config {
	return &Config{
		Root: root,
		Search: SearchConfig{
			WorkspaceRoot: root,
			Variables:     map[string]string{},
		},
		Worker: WorkerConfig{
			PoolSize: runtime.NumCPU(),
		},
		Timeouts: Timeouts{
			Load:     DefaultLoadTimeout,
			Resolve:  DefaultResolveTimeout,
			Complete: DefaultCompleteTimeout,
		},
		Debounce: DefaultDebounce,
	}
}
