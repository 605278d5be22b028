package ports

import (
	"context"

	"go.trai.ch/importcache/internal/core/domain"
)

// ImportResolver maps an import name and its search context to a canonical source.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ImportResolver interface {
	// Resolve returns the canonical identity of the import.
	// It returns an error wrapping domain.ErrImportNotFound when no candidate exists.
	Resolve(ctx context.Context, req domain.ImportRequest) (*domain.ResolvedImport, error)
}
