package vault

import (
	"path/filepath"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// canonicalize implements the slug-identity decision in SPEC_FULL.md §9:
// lower-case, whitespace collapsed to a single underscore. Used both to
// derive a note's slug from its file name and to derive a link's index key
// from its display target text.
func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRun.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// SlugForPath derives a note's slug from its path relative to the vault
// root: the file's base name without extension, canonicalized.
func SlugForPath(relPath string) string {
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return canonicalize(base)
}
