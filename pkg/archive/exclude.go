package archive

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Excluded reports whether rel, a slash separated path relative to the
// packaged directory, matches one of patterns. A directory also matches a
// pattern naming its whole content, so "node_modules/**" skips the
// node_modules directory itself.
func Excluded(patterns []string, rel string, isDir bool) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(pattern, "./")
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if isDir && strings.HasSuffix(pattern, "/**") {
			if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), rel); ok {
				return true
			}
		}
		// Bare names match at any depth, like rsync excludes.
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, lastSegment(rel)); ok {
				return true
			}
		}
	}
	return false
}

func lastSegment(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
