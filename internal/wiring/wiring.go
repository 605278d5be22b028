// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/importcache/internal/adapters/config"
	_ "go.trai.ch/importcache/internal/adapters/documents"
	_ "go.trai.ch/importcache/internal/adapters/fs"
	_ "go.trai.ch/importcache/internal/adapters/logger"
	_ "go.trai.ch/importcache/internal/adapters/metrics"
	_ "go.trai.ch/importcache/internal/adapters/robotfile"
	_ "go.trai.ch/importcache/internal/adapters/telemetry"
	_ "go.trai.ch/importcache/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/importcache/internal/app"
)
