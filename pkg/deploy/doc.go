// Package deploy runs a release through the releases directory and symlink
// cutover pipeline on a remote host.
//
// A deploy creates deployPath/releasesFolder/<tag>, fills it with the
// build (an uploaded and extracted archive, or a copy of an rsynced
// folder), links the shared folders into it, and finally repoints the
// current release symlink at it. Old releases are then pruned.
//
// The pipeline is an ordered list of steps consumed by a single driver
// loop. The first failing step stops the run: the new release directory
// is removed unless the release already went live, the session is closed
// and the error is returned with the failing state in its details.
//
// Example:
//
//	cfg, err := config.LoadAndResolve(config.LoadOptions{File: "sshrelease.toml"})
//	if err != nil {
//		return err
//	}
//	release, err := deploy.DeployRelease(ctx, cfg)
package deploy
