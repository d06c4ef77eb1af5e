// Package archive packages the local build into the single file uploaded
// in archive mode.
//
// Zip archives and tar archives, optionally gzip compressed, are written
// through an afero filesystem so tests can build archives in memory.
// Exclude patterns are doublestar globs matched against slash separated
// paths relative to the packaged directory.
package archive
