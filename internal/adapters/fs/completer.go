package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
)

// ItemDirectory is the kind of completion items naming a directory.
const ItemDirectory = "directory"

var _ ports.Completer = (*Completer)(nil)

// Completer lists import names found on disk. Module names of libraries and
// variables are additionally requested from the fallback.
type Completer struct {
	fallback ports.Completer
}

// NewCompleter creates a Completer. fallback may be nil.
func NewCompleter(fallback ports.Completer) *Completer {
	return &Completer{fallback: fallback}
}

// Complete implements ports.Completer.
func (c *Completer) Complete(
	ctx context.Context,
	kind domain.ImportKind,
	partial, baseDir string,
	search domain.SearchConfig,
) ([]domain.CompletionItem, error) {
	partial = Substitute(partial, baseDir, search.Variables)

	slash := strings.LastIndexAny(partial, `/\`)
	dirPart, prefix := partial[:slash+1], partial[slash+1:]

	var dirs []string
	if filepath.IsAbs(dirPart) {
		dirs = []string{dirPart}
	} else {
		for _, dir := range candidateDirs(baseDir, search) {
			dirs = append(dirs, filepath.Join(dir, dirPart))
		}
	}

	seen := make(map[string]bool)
	var items []domain.CompletionItem
	add := func(item domain.CompletionItem) {
		if seen[item.Label] {
			return
		}
		seen[item.Label] = true
		items = append(items, item)
	}

	for _, dir := range dirs {
		for _, item := range listDir(dir, dirPart, prefix, kind) {
			add(item)
		}
	}

	if kind != domain.KindResource && dirPart == "" && c.fallback != nil {
		remote, err := c.fallback.Complete(ctx, kind, partial, baseDir, search)
		if err != nil && !errors.Is(err, domain.ErrWorkerNotConfigured) {
			return nil, err
		}
		for _, item := range remote {
			add(item)
		}
	}

	slices.SortFunc(items, func(a, b domain.CompletionItem) int {
		return strings.Compare(a.Label, b.Label)
	})
	return items, nil
}

// listDir returns the entries of dir that start with prefix and can be imported as kind.
func listDir(dir, dirPart, prefix string, kind domain.ImportKind) []domain.CompletionItem {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var items []domain.CompletionItem
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		path := filepath.Join(dir, name)

		if e.IsDir() {
			if skipDir(name) {
				continue
			}
			if kind != domain.KindResource && dirPart == "" && isFile(filepath.Join(path, packageInit)) {
				items = append(items, domain.CompletionItem{Label: name, Kind: kind.String(), Detail: path})
			}
			items = append(items, domain.CompletionItem{Label: dirPart + name + "/", Kind: ItemDirectory, Detail: path})
			continue
		}

		switch kind {
		case domain.KindResource:
			if hasExtension(name, ResourceExtensions) {
				items = append(items, domain.CompletionItem{Label: dirPart + name, Kind: kind.String(), Detail: path})
			}
		case domain.KindLibrary:
			if hasExtension(name, []string{".py"}) && name != packageInit {
				label := dirPart + name
				if dirPart == "" {
					label = strings.TrimSuffix(name, filepath.Ext(name))
				}
				items = append(items, domain.CompletionItem{Label: label, Kind: kind.String(), Detail: path})
			}
		case domain.KindVariables:
			if hasExtension(name, VariablesExtensions) && name != packageInit {
				items = append(items, domain.CompletionItem{Label: dirPart + name, Kind: kind.String(), Detail: path})
			}
		}
	}
	return items
}
