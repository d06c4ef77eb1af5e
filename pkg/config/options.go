package config

import (
	"fmt"
	"time"
)

// Mode selects how the build reaches the release directory.
type Mode string

const (
	// ModeArchive packages local_path, uploads one archive and extracts it.
	ModeArchive Mode = "archive"
	// ModeSynchronize rsyncs local_path and copies the synced tree.
	ModeSynchronize Mode = "synchronize"
)

// ArchiveType is the archive format used in archive mode.
type ArchiveType string

const (
	ArchiveZip ArchiveType = "zip"
	ArchiveTar ArchiveType = "tar"
)

// ShareEntry describes one shared folder linked into every release.
type ShareEntry struct {
	// Symlink is the link path inside the release, e.g. "web/uploads".
	Symlink string `koanf:"symlink"`
	// Mode is an optional chmod mode applied to the shared folder.
	Mode string `koanf:"mode"`
}

// CommandHookOptions are the command lists a config file can attach to
// the pipeline hook points.
type CommandHookOptions struct {
	BeforeDeploy []string `koanf:"before_deploy"`
	BeforeLink   []string `koanf:"before_link"`
	AfterDeploy  []string `koanf:"after_deploy"`
}

// Options is the unresolved, user-facing configuration. Zero values mean
// "not set" and are filled from the defaults by Resolve.
type Options struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	PrivateKeyFile string        `koanf:"private_key_file"`
	Passphrase     string        `koanf:"passphrase"`
	Agent          string        `koanf:"agent"`
	ReadyTimeout   time.Duration `koanf:"ready_timeout"`
	KnownHostsFile string        `koanf:"known_hosts_file"`

	DeployPath         string `koanf:"deploy_path"`
	ReleasesFolder     string `koanf:"releases_folder"`
	CurrentReleaseLink string `koanf:"current_release_link"`
	SharedFolder       string `koanf:"shared_folder"`
	SynchronizedFolder string `koanf:"synchronized_folder"`

	LocalPath    string   `koanf:"local_path"`
	Exclude      []string `koanf:"exclude"`
	RsyncOptions []string `koanf:"rsync_options"`

	Mode                              string `koanf:"mode"`
	ArchiveType                       string `koanf:"archive_type"`
	ArchiveName                       string `koanf:"archive_name"`
	Gzip                              *bool  `koanf:"gzip"`
	DeleteLocalArchiveAfterDeployment *bool  `koanf:"delete_local_archive_after_deployment"`

	ReleasesToKeep *int   `koanf:"releases_to_keep"`
	Tag            string `koanf:"tag"`
	// TagFunc, when set, is called once to produce the release tag and
	// takes precedence over Tag.
	TagFunc       func() string `koanf:"-"`
	AtomicCutover bool          `koanf:"atomic_cutover"`
	AllowRemove   bool          `koanf:"allow_remove"`

	Share          map[string]ShareEntry `koanf:"share"`
	Create         []string              `koanf:"create"`
	MakeWritable   []string              `koanf:"make_writable"`
	MakeExecutable []string              `koanf:"make_executable"`

	Hooks CommandHookOptions `koanf:"hooks"`
	// Callbacks are hooks supplied from Go code rather than a file.
	Callbacks Hooks `koanf:"-"`
}

// Bool returns a pointer to b, for the tri-state boolean options.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to i, for the tri-state integer options.
func Int(i int) *int {
	return &i
}

// Timestamp formats t as a release tag, e.g. 2024-03-01-14-05-09-123-UTC.
func Timestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03d-UTC", t.Format("2006-01-02-15-04-05"), t.Nanosecond()/int(time.Millisecond))
}

// TimestampTag returns a tag generator based on the current time.
func TimestampTag() func() string {
	return func() string { return Timestamp(time.Now()) }
}
