package domain

import "strings"

// SearchConfig is the search context shared by every resolution and computation.
type SearchConfig struct {
	// WorkspaceRoot is the root directory of the workspace.
	WorkspaceRoot string
	// SearchPaths are the configured import search roots, absolute.
	SearchPaths []string
	// Variables are substituted into ${NAME} placeholders in import names.
	Variables map[string]string
}

// ImportRequest carries everything a collaborator needs to resolve or compute an import.
type ImportRequest struct {
	Kind    ImportKind   `json:"kind"`
	Name    string       `json:"name"`
	Args    []string     `json:"args,omitempty"`
	BaseDir string       `json:"baseDir"`
	Search  SearchConfig `json:"search"`
}

// ResolvedImport is the canonical identity of an import after resolution.
type ResolvedImport struct {
	Kind ImportKind `json:"kind" yaml:"kind"`
	// Name is the import name with placeholders substituted.
	Name string `json:"name" yaml:"name"`
	// Source is the file backing the import, empty when the import has no
	// filesystem location (e.g. a built-in module).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// SearchLocations is non-empty when the import is a package directory.
	SearchLocations []string `json:"searchLocations,omitempty" yaml:"searchLocations,omitempty"`
}

// IsPackage reports whether the import resolved to a package directory.
func (r *ResolvedImport) IsPackage() bool {
	return len(r.SearchLocations) > 0
}

// Identity returns the string a cache key is built from.
func (r *ResolvedImport) Identity() string {
	if r.Source != "" {
		return r.Source
	}
	if len(r.SearchLocations) > 0 {
		return r.SearchLocations[0]
	}
	return r.Name
}

// HasPlaceholder reports whether name still contains a variable placeholder.
func HasPlaceholder(name string) bool {
	for _, prefix := range []string{"${", "@{", "&{", "%{"} {
		if strings.Contains(name, prefix) {
			return true
		}
	}
	return false
}
