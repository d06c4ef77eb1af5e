// Package paths holds the path arithmetic used on the remote host.
//
// Everything here is pure string manipulation with POSIX semantics: the
// remote host is always a POSIX filesystem, so the package never uses
// path/filepath and never touches a filesystem.
//
// # Relative symlinks
//
// Links created on the remote host are always relative so that a deploy
// directory keeps working when it is moved or mounted elsewhere. The
// number of levels a link must climb is derived only from the link's
// name:
//
//	ReversePath("web/uploads")                    // "../.."
//	RelativeTarget("releases/r4/web/uploads",
//	               "shared/uploads")              // "../../../shared/uploads"
//	RelativeTarget("www", "releases/r4")          // "releases/r4"
//
// # Normalization
//
// Normalize collapses "." and ".." segments but never climbs above the
// first MinRetainedSegments segments, so a link target resolved against
// an absolute release path cannot escape the deploy root.
package paths
