package fs

import (
	"path/filepath"
	"strings"
	"unicode"

	"go.trai.ch/importcache/internal/core/domain"
)

// Substitute replaces ${NAME} placeholders in name. ${CURDIR} is the
// importing file's directory and ${/} is the path separator; every other
// placeholder is looked up in variables. Variable names match ignoring case,
// spaces and underscores. Unknown placeholders are left in place.
func Substitute(name, baseDir string, variables map[string]string) string {
	if !strings.Contains(name, "${") {
		return name
	}

	lookup := make(map[string]string, len(variables)+2)
	for k, v := range variables {
		lookup[normalizeVar(trimDecoration(k))] = v
	}
	lookup[normalizeVar(domain.CurDirVariable)] = baseDir
	lookup["/"] = string(filepath.Separator)

	var b strings.Builder
	rest := name
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		key := rest[start+2 : end]
		if v, ok := lookup[normalizeVar(key)]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	return b.String()
}

// trimDecoration strips a ${...} wrapper from a configured variable name.
func trimDecoration(name string) string {
	if strings.HasPrefix(name, "${") && strings.HasSuffix(name, "}") {
		return name[2 : len(name)-1]
	}
	return name
}

func normalizeVar(name string) string {
	if name == "/" {
		return name
	}
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}
