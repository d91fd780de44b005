// Package pathutil normalizes repository-relative paths to a canonical
// POSIX form and applies subdir/extension filters consistently across the
// sync engine.
package pathutil

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TraversalError is returned by NormalizePath when a path component is
// exactly "..". A filename that merely contains ".." (e.g. "notes..md")
// is not a traversal and is accepted.
type TraversalError struct {
	Path string
}

func (e *TraversalError) Error() string {
	return "path traversal rejected: " + e.Path
}

// NormalizePath converts backslashes to slashes, strips a leading slash,
// repeatedly strips a leading "./", and rejects any path with a ".."
// component.
func NormalizePath(p string) (string, error) {
	orig := p
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "/")
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}

	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", &TraversalError{Path: orig}
		}
	}
	return p, nil
}

// ParseExtensions splits a comma-separated extension list into an
// insertion-ordered, lowercased, dot-prefixed slice. Blank entries are
// dropped; an empty or whitespace-only input yields an empty slice.
func ParseExtensions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}

// CanonicalExtensions returns the comma-joined, trimmed, lowercased,
// sorted form used as input to the config hash (§3). Unlike
// ParseExtensions, order and duplicates do not matter here: the result is
// deterministic for any permutation, case, or whitespace variation of the
// same extension set.
func CanonicalExtensions(exts []string) string {
	normalized := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		normalized = append(normalized, e)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",")
}

// FilterBySubdir keeps only paths that live under the given subdir prefix.
// An empty subdir is the identity filter.
func FilterBySubdir(paths []string, subdir string) []string {
	if strings.Trim(subdir, "/") == "" {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if MatchesSubdir(p, subdir) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesSubdir reports whether a single path lives under subdir.
func MatchesSubdir(path, subdir string) bool {
	subdir = strings.Trim(subdir, "/")
	if subdir == "" {
		return true
	}
	path = strings.TrimPrefix(path, "/")
	return strings.HasPrefix(path, subdir+"/")
}

// FilterByExtensions keeps only paths whose lowercase form ends with one
// of exts. An empty exts is the identity filter.
func FilterByExtensions(paths []string, exts []string) []string {
	if len(exts) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if MatchesExtensions(p, exts) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesExtensions reports whether a single path's lowercase form ends
// with any of exts.
func MatchesExtensions(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// defaultExcludes are applied during tree enumeration regardless of
// configuration, mirroring the teacher's hardcoded-exclude idiom for
// directory mirroring, generalized here to repository crawling.
var defaultExcludes = []string{
	".git/**",
	"**/.git/**",
}

// IsDefaultExcluded reports whether a repository-relative path falls
// under one of the always-on VCS-internal exclusions.
func IsDefaultExcluded(relPath string) bool {
	for _, pattern := range defaultExcludes {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}
