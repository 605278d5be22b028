package domain

import "time"

const (
	// ConfigFileName is the name of the workspace configuration file.
	ConfigFileName = "importcache.yaml"

	// DefaultLoadTimeout bounds library and variables documentation jobs.
	DefaultLoadTimeout = 30 * time.Second

	// DefaultResolveTimeout bounds import-name resolution jobs.
	DefaultResolveTimeout = 10 * time.Second

	// DefaultCompleteTimeout bounds completion jobs.
	DefaultCompleteTimeout = 10 * time.Second

	// DefaultDebounce is the window in which file events are coalesced into one batch.
	DefaultDebounce = 50 * time.Millisecond

	// CurDirVariable is substituted with the importing file's directory.
	CurDirVariable = "CURDIR"
)

// IgnoredDirNames are directories never watched nor searched.
var IgnoredDirNames = []string{".git", ".jj", "node_modules", "__pycache__", ".venv"}
