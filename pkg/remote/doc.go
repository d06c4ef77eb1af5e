// Package remote owns the command channel to the remote host.
//
// A Session runs one shell command at a time and reports a non-zero exit
// as a COMMAND error carrying the command and its stderr verbatim. The
// SSH implementation opens a fresh channel per command on a single
// authenticated connection; the dry-run implementation only prints what
// would be run.
package remote
