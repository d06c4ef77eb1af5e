// Package transfer moves the build from the local machine to the remote
// host.
//
// Two channels are provided. SFTPChannel reuses the authenticated SSH
// connection of a remote session and is used in archive mode to upload the
// packaged release. RsyncChannel shells out to the local rsync binary and
// is used in synchronize mode to mirror local_path into the synchronized
// folder on the host.
//
// Every failure is reported as a TRANSFER error.
package transfer
