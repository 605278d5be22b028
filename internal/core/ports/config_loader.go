package ports

import "go.trai.ch/importcache/internal/core/domain"

// ConfigLoader defines the interface for loading the workspace configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the configuration file starting at cwd and returns the
	// resolved configuration. Defaults are returned when no file exists.
	Load(cwd string) (*domain.Config, error)
}
