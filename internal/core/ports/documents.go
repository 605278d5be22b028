package ports

import (
	"context"

	"go.trai.ch/importcache/internal/core/domain"
)

// DocumentListener is notified when a live-edited document changes.
type DocumentListener func(ctx context.Context, doc *domain.TextDocument)

// DocumentStore is the host's view of text documents.
//
//go:generate mockgen -source=documents.go -destination=mocks/mock_documents.go -package=mocks
type DocumentStore interface {
	// Open returns the document at path. Documents open in an editor are
	// returned as versioned, everything else is read from disk.
	Open(ctx context.Context, path string) (*domain.TextDocument, error)
	// Subscribe registers fn for edits of the document at path.
	// The returned function removes the subscription.
	Subscribe(path string, fn DocumentListener) func()
}

// ResourceParser turns a resource file into its namespace and documentation.
type ResourceParser interface {
	ParseResource(ctx context.Context, doc *domain.TextDocument) (*domain.ResourceDoc, error)
}
