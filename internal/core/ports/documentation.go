package ports

import (
	"context"

	"go.trai.ch/importcache/internal/core/domain"
)

// DocumentationProvider computes documentation for library and variables imports.
// Implementations typically run the analysis out of process.
//
//go:generate mockgen -source=documentation.go -destination=mocks/mock_documentation.go -package=mocks
type DocumentationProvider interface {
	// LibraryDoc computes the documentation of a keyword library.
	LibraryDoc(ctx context.Context, req domain.ImportRequest) (*domain.LibraryDoc, error)
	// VariablesDoc computes the documentation of a variables import.
	VariablesDoc(ctx context.Context, req domain.ImportRequest) (*domain.VariablesDoc, error)
}

// Completer lists import-name completion candidates.
type Completer interface {
	// Complete returns candidates of the given kind for a partially typed name.
	Complete(
		ctx context.Context,
		kind domain.ImportKind,
		partial, baseDir string,
		search domain.SearchConfig,
	) ([]domain.CompletionItem, error)
}
