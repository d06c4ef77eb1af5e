package report

import "github.com/arthur-debert/sshrelease/pkg/deploy"

// Step headings
var stepTitles = map[deploy.State]string{
	deploy.StatePreDeployHook:       "Running before deploy hook",
	deploy.StatePackage:             "Packaging release",
	deploy.StateConnect:             "Connecting to remote server",
	deploy.StateMakeReleaseDir:      "Creating release directory",
	deploy.StateTransfer:            "Transferring release",
	deploy.StateExtract:             "Extracting archive",
	deploy.StatePreLinkHook:         "Running before link hook",
	deploy.StateLinkShared:          "Linking shared folders",
	deploy.StateCreateExtraDirs:     "Creating folders",
	deploy.StateMakeWritable:        "Making folders writable",
	deploy.StateMakeExecutable:      "Making files executable",
	deploy.StateCutover:             "Updating current release symlink",
	deploy.StatePostDeployHook:      "Running after deploy hook",
	deploy.StateCleanup:             "Removing old releases",
	deploy.StateDeleteLocalArtifact: "Deleting local archive",
	deploy.StateRemoveAll:           "Removing deploy path",
	deploy.StateRollback:            "Rolling back release",
	deploy.StateClose:               "Closing connection",
}

const (
	MsgDeployed       = "Release %s is live at %s"
	MsgRemoved        = "Removed %s from %s"
	MsgFailedFormat   = "Failed at %s: %s"
	MsgFailed         = "Failed: %s"
	MsgCommandLabel   = "command:"
	MsgStderrLabel    = "stderr:"
	MsgDryRunNotice   = "DRY RUN - nothing was changed on the remote host"
	MsgPrunedReleases = "pruned: %s"
)
