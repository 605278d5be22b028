// Package fs resolves import names against the file system.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/importcache/internal/core/domain"
)

// ResourceExtensions are the file extensions of resource files.
var ResourceExtensions = []string{".resource", ".robot", ".txt", ".tsv", ".rst"}

// VariablesExtensions are the file extensions of variables files.
var VariablesExtensions = []string{".py", ".yaml", ".yml", ".json"}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root whose extension is in exts, skipping
// the directories named in domain.IgnoredDirNames and hidden directories.
// An empty exts yields every file.
func (w *Walker) WalkFiles(root string, exts []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return err
			}

			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if len(exts) > 0 && !hasExtension(path, exts) {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ResourceFiles yields the files below root with the .resource extension.
func (w *Walker) ResourceFiles(root string) iter.Seq[string] {
	return w.WalkFiles(root, []string{".resource"})
}

func skipDir(name string) bool {
	return slices.Contains(domain.IgnoredDirNames, name) || strings.HasPrefix(name, ".")
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(exts, ext)
}
