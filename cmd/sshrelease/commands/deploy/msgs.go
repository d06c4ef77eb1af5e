package deploy

// Message constants
const (
	MsgShort = "Deploy the local build as a new release"
	MsgLong  = `Package local_path, send it to a fresh release directory on the remote host,
link the shared folders and switch the current release symlink to it.

A failure before the switch removes the new release directory and leaves the
live release untouched. Old releases beyond releases_to_keep are pruned after
the switch.

The optional target selects a [targets.<name>] section of the config file.`
	MsgExample = `  sshrelease deploy                        # Deploy with ./sshrelease.toml
  sshrelease deploy production             # Use [targets.production]
  sshrelease deploy --tag v1.4.0           # Name the release directory
  sshrelease deploy staging --dry-run      # Print the remote commands only`

	MsgFlagTag    = "Release tag (default: a UTC timestamp)"
	MsgFlagDryRun = "Print remote commands and transfers instead of running them"
	MsgFlagStream = "Echo remote command output while it runs"
)
