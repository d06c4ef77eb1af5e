package deploy

// State names a step of the pipeline.
type State string

const (
	StateInit                State = "Init"
	StatePreDeployHook       State = "PreDeployHook"
	StatePackage             State = "Package"
	StateConnect             State = "Connect"
	StateMakeReleaseDir      State = "MakeReleaseDir"
	StateTransfer            State = "Transfer"
	StateExtract             State = "Extract"
	StatePreLinkHook         State = "PreLinkHook"
	StateLinkShared          State = "LinkShared"
	StateCreateExtraDirs     State = "CreateExtraDirs"
	StateMakeWritable        State = "MakeWritable"
	StateMakeExecutable      State = "MakeExecutable"
	StateCutover             State = "Cutover"
	StatePostDeployHook      State = "PostDeployHook"
	StateCleanup             State = "Cleanup"
	StateDeleteLocalArtifact State = "DeleteLocalArtifact"
	StateRemoveAll           State = "RemoveAll"
	StateRollback            State = "Rollback"
	StateClose               State = "Close"
	StateDone                State = "Done"
	StateFailed              State = "Failed"
)

// ReleaseState is the lifecycle of the release directory being deployed.
type ReleaseState int

const (
	ReleasePending ReleaseState = iota
	ReleaseUploaded
	ReleaseExtracted
	ReleaseLinked
	ReleaseActive
	ReleaseRolledBack
)

func (s ReleaseState) String() string {
	switch s {
	case ReleasePending:
		return "pending"
	case ReleaseUploaded:
		return "uploaded"
	case ReleaseExtracted:
		return "extracted"
	case ReleaseLinked:
		return "linked"
	case ReleaseActive:
		return "active"
	case ReleaseRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Release is the release directory created by one deploy.
type Release struct {
	Tag   string
	Path  string
	State ReleaseState
	// CurrentTarget is the relative target written to the current link.
	CurrentTarget string
	SharedLinks   []SharedLink
	// Pruned lists the old releases removed by retention.
	Pruned []string
}

// SharedLink is one shared folder linked into the release.
type SharedLink struct {
	// Name is the folder name under the shared folder.
	Name string
	// LinkPath is the absolute remote path of the symlink.
	LinkPath string
	// Target is the relative target stored in the symlink.
	Target string
	// Resolved is the remote directory the symlink points at.
	Resolved string
	Mode     string
}
