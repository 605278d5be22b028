package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// packageInit marks a directory as an importable package.
const packageInit = "__init__.py"

var _ ports.ImportResolver = (*Resolver)(nil)

// Resolver maps import names to files below the importing directory and the
// configured search paths. Names it cannot map on disk, such as installed
// modules or names with unknown placeholders, are passed to the fallback.
type Resolver struct {
	fallback ports.ImportResolver
}

// NewResolver creates a Resolver. fallback may be nil.
func NewResolver(fallback ports.ImportResolver) *Resolver {
	return &Resolver{fallback: fallback}
}

// Resolve implements ports.ImportResolver.
func (r *Resolver) Resolve(ctx context.Context, req domain.ImportRequest) (*domain.ResolvedImport, error) {
	name := Substitute(strings.TrimSpace(req.Name), req.BaseDir, req.Search.Variables)
	if name == "" {
		return nil, errors.Join(domain.ErrImportNotFound, zerr.New("empty import name"))
	}

	if domain.HasPlaceholder(name) {
		return r.delegate(ctx, req, name)
	}

	dirs := candidateDirs(req.BaseDir, req.Search)
	var resolved *domain.ResolvedImport
	switch {
	case req.Kind == domain.KindResource:
		resolved = findFile(name, dirs)
	case isPathLike(name):
		resolved = findModulePath(name, dirs)
	default:
		resolved = findModule(name, dirs)
		if resolved == nil {
			return r.delegate(ctx, req, name)
		}
	}

	if resolved == nil {
		return nil, notFound(req.Kind, name, req.BaseDir)
	}
	resolved.Kind = req.Kind
	resolved.Name = name
	return resolved, nil
}

// delegate hands req to the fallback with placeholders substituted.
func (r *Resolver) delegate(ctx context.Context, req domain.ImportRequest, name string) (*domain.ResolvedImport, error) {
	if r.fallback == nil {
		return nil, notFound(req.Kind, name, req.BaseDir)
	}
	req.Name = name
	return r.fallback.Resolve(ctx, req)
}

func notFound(kind domain.ImportKind, name, baseDir string) error {
	detail := zerr.With(zerr.New(kind.String()+" "+strconv.Quote(name)+" not found on disk"), "base_dir", baseDir)
	return errors.Join(domain.ErrImportNotFound, detail)
}

// candidateDirs returns the directories relative names are looked up in, in order.
func candidateDirs(baseDir string, search domain.SearchConfig) []string {
	dirs := make([]string, 0, len(search.SearchPaths)+2)
	if baseDir != "" {
		dirs = append(dirs, baseDir)
	}
	dirs = append(dirs, search.SearchPaths...)
	if search.WorkspaceRoot != "" {
		dirs = append(dirs, search.WorkspaceRoot)
	}
	return dirs
}

// isPathLike reports whether name refers to a file or directory rather than a module.
func isPathLike(name string) bool {
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return true
	}
	return hasExtension(name, VariablesExtensions)
}

// findFile looks name up as a plain file.
func findFile(name string, dirs []string) *domain.ResolvedImport {
	for _, path := range candidates(name, dirs) {
		if isFile(path) {
			return &domain.ResolvedImport{Source: path}
		}
	}
	return nil
}

// findModulePath looks name up as a module file or a package directory.
func findModulePath(name string, dirs []string) *domain.ResolvedImport {
	for _, path := range candidates(name, dirs) {
		if resolved := moduleAt(path); resolved != nil {
			return resolved
		}
	}
	return nil
}

// findModule looks a dotted module name up as <dir>/<a/b>.py or a package <dir>/<a/b>/.
func findModule(name string, dirs []string) *domain.ResolvedImport {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
	for _, dir := range dirs {
		base := filepath.Join(dir, rel)
		if isFile(base + ".py") {
			return &domain.ResolvedImport{Source: base + ".py"}
		}
		if resolved := packageAt(base); resolved != nil {
			return resolved
		}
	}
	return nil
}

func moduleAt(path string) *domain.ResolvedImport {
	if isFile(path) {
		return &domain.ResolvedImport{Source: path}
	}
	return packageAt(path)
}

func packageAt(dir string) *domain.ResolvedImport {
	marker := filepath.Join(dir, packageInit)
	if !isFile(marker) {
		return nil
	}
	return &domain.ResolvedImport{Source: marker, SearchLocations: []string{dir}}
}

func candidates(name string, dirs []string) []string {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return []string{filepath.Clean(name)}
	}
	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
