package remove

// Message constants
const (
	MsgShort = "Remove the whole deploy path from the remote host"
	MsgLong  = `Delete deploy_path on the remote host, including every release, the shared
folders and the current release symlink.

This is refused unless allow_remove = true is set in the configuration, and
asks for confirmation unless --yes or --dry-run is given.`
	MsgExample = `  sshrelease remove staging             # rm -rf the staging deploy path
  sshrelease remove staging --dry-run   # Print the command only`

	MsgFlagDryRun = "Print the remote command instead of running it"
	MsgFlagYes    = "Do not ask for confirmation"

	MsgConfirm  = "Remove %s on %s? This deletes every release and the shared folders."
	MsgDeclined = "remove declined"
)
