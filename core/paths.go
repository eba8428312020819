package core

import (
	"path/filepath"
	"strings"
)

// isURL reports whether s is an http or https address.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolvePath resolves a document path against a base path or base URL.
// Absolute URLs and absolute filesystem paths are returned unchanged.
func ResolvePath(base, path string) string {
	if isURL(path) {
		return path
	}
	if isURL(base) {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
