package watcher

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar"
	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/zerr"
)

const globMeta = "*?[{"

// scope is the part of the file tree a pattern can match: the literal
// directory prefix of the pattern, and whether matches may lie below its
// immediate children.
type scope struct {
	dir       string
	recursive bool
}

// patternScope validates pattern and returns the directories it needs watched.
func patternScope(pattern string) (scope, error) {
	if err := validatePattern(pattern); err != nil {
		return scope{}, errors.Join(domain.ErrInvalidPattern, zerr.With(zerr.Wrap(err, "pattern rejected"), "pattern", pattern))
	}

	segments := strings.Split(filepath.ToSlash(pattern), "/")
	literal := make([]string, 0, len(segments))
	for i, seg := range segments {
		if !hasMeta(seg) {
			literal = append(literal, unescape(seg))
			continue
		}
		rest := segments[i:]
		return scope{
			dir:       filepath.FromSlash(joinSegments(literal)),
			recursive: len(rest) > 1 || strings.Contains(seg, "**"),
		}, nil
	}

	// A pattern without wildcards names a single file.
	return scope{dir: filepath.Dir(filepath.FromSlash(joinSegments(literal)))}, nil
}

func joinSegments(segments []string) string {
	joined := strings.Join(segments, "/")
	if joined == "" {
		return "/"
	}
	return filepath.Clean(joined)
}

func validatePattern(pattern string) error {
	if !filepath.IsAbs(pattern) {
		return zerr.New("pattern must be absolute")
	}

	var brackets, braces int
	escaped := false
	for _, r := range pattern {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '[':
			brackets++
		case ']':
			brackets--
		case '{':
			braces++
		case '}':
			braces--
		}
		if brackets < 0 || braces < 0 {
			return zerr.New("unbalanced brackets")
		}
	}
	if escaped {
		return zerr.New("trailing escape character")
	}
	if brackets != 0 || braces != 0 {
		return zerr.New("unbalanced brackets")
	}

	if _, err := doublestar.PathMatch(pattern, pattern); err != nil {
		return err
	}
	return nil
}

func hasMeta(segment string) bool {
	escaped := false
	for _, r := range segment {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if strings.ContainsRune(globMeta, r) {
			return true
		}
	}
	return false
}

func unescape(segment string) string {
	if !strings.Contains(segment, `\`) {
		return segment
	}
	var b strings.Builder
	escaped := false
	for _, r := range segment {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// matches reports whether path matches any of patterns.
func matches(patterns []string, path string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		ok, err := doublestar.PathMatch(p, path)
		return err == nil && ok
	})
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func ignoredDir(name string) bool {
	return slices.Contains(domain.IgnoredDirNames, name)
}
