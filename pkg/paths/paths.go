package paths

import (
	"path"
	"strings"
)

// MinRetainedSegments is the number of leading segments Normalize will
// never pop with "..".
const MinRetainedSegments = 3

// preservedSegments leading segments are copied through Normalize as-is.
const preservedSegments = 2

// ReversePath replaces every segment of downwardPath with "..", giving
// the upward path that escapes the same number of directory levels.
func ReversePath(downwardPath string) string {
	segments := strings.Split(downwardPath, "/")
	for i, s := range segments {
		if s != "" {
			segments[i] = ".."
		}
	}
	return strings.Join(segments, "/")
}

// Normalize collapses "." and ".." segments of p from left to right.
// The first two segments are kept unconditionally, and a ".." only pops
// the previous segment when more than MinRetainedSegments are retained
// and that segment is not itself ".."; otherwise it is kept literally.
// Empty segments are dropped unless they are needed to reach the minimum
// retained length.
func Normalize(p string) string {
	segments := strings.Split(p, "/")
	retained := make([]string, 0, len(segments))

	for i, s := range segments {
		if i < preservedSegments {
			retained = append(retained, s)
			continue
		}
		switch s {
		case ".":
		case "":
			if len(retained) < MinRetainedSegments {
				retained = append(retained, s)
			}
		case "..":
			if len(retained) > MinRetainedSegments && retained[len(retained)-1] != ".." {
				retained = retained[:len(retained)-1]
			} else {
				retained = append(retained, s)
			}
		default:
			retained = append(retained, s)
		}
	}

	return strings.Join(retained, "/")
}

// RelativeTarget returns the relative symlink target for a link named
// linkName pointing at target, where both are relative to the same root.
func RelativeTarget(linkName, target string) string {
	dir := path.Dir(path.Clean(linkName))
	target = strings.TrimPrefix(path.Clean(target), "./")
	if dir == "." || dir == "/" {
		return target
	}
	return ReversePath(dir) + "/" + target
}

// Resolve returns the location a relative target points at once it is
// placed in the directory holding link. An absolute target is returned
// unchanged.
func Resolve(link, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	return Normalize(link + "/../" + target)
}

// Join joins remote path elements with forward slashes.
func Join(elem ...string) string {
	return path.Join(elem...)
}
