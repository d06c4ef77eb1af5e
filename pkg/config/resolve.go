package config

import (
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/paths"
)

// DefaultReleasesToKeep applies when neither the defaults nor the user set
// releases_to_keep.
const DefaultReleasesToKeep = 3

// AuthMethod is the single authentication method used for a run.
type AuthMethod string

const (
	AuthPrivateKey AuthMethod = "private_key"
	AuthPassword   AuthMethod = "password"
	AuthAgent      AuthMethod = "agent"
)

// Auth carries the resolved credentials. Only the fields of Method are set.
type Auth struct {
	Method         AuthMethod
	PrivateKeyFile string
	Passphrase     string
	Password       string
	AgentSocket    string
}

// DeploymentConfig is the resolved configuration of one run. It is not
// modified after Resolve returns.
type DeploymentConfig struct {
	Host           string
	Port           int
	Username       string
	Auth           Auth
	ReadyTimeout   time.Duration
	KnownHostsFile string

	DeployPath         string
	ReleasesFolder     string
	CurrentReleaseLink string
	SharedFolder       string
	SynchronizedFolder string

	LocalPath    string
	Exclude      []string
	RsyncOptions []string

	Mode               Mode
	ArchiveType        ArchiveType
	ArchiveName        string
	Gzip               bool
	DeleteLocalArchive bool

	ReleasesToKeep int
	ReleaseTag     string
	ReleasePath    string
	AtomicCutover  bool
	AllowRemove    bool

	Share          map[string]ShareEntry
	Create         []string
	MakeWritable   []string
	MakeExecutable []string

	Hooks Hooks
}

// Address returns host:port for dialing.
func (c *DeploymentConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReleasesPath is the remote directory holding every release.
func (c *DeploymentConfig) ReleasesPath() string {
	return paths.Join(c.DeployPath, c.ReleasesFolder)
}

// CurrentPath is the remote location of the current release symlink.
func (c *DeploymentConfig) CurrentPath() string {
	return paths.Join(c.DeployPath, c.CurrentReleaseLink)
}

// SharedPath is the remote directory holding the shared folders.
func (c *DeploymentConfig) SharedPath() string {
	return paths.Join(c.DeployPath, c.SharedFolder)
}

// SynchronizedPath is the rsync destination used in synchronize mode.
func (c *DeploymentConfig) SynchronizedPath() string {
	return paths.Join(c.DeployPath, c.SynchronizedFolder)
}

// SharedNames returns the share keys in a stable order.
func (c *DeploymentConfig) SharedNames() []string {
	names := make([]string, 0, len(c.Share))
	for name := range c.Share {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve merges user over defaults and validates the result.
//
// Scalars set in user win. Slices set in user replace the default
// slice. The share map and the hooks merge key by key, so a user entry
// does not wipe unrelated default entries.
func Resolve(defaults, user Options) (*DeploymentConfig, error) {
	o := mergeOptions(defaults, user)

	cfg := &DeploymentConfig{
		Host:               strings.TrimSpace(o.Host),
		Port:               o.Port,
		Username:           o.Username,
		ReadyTimeout:       o.ReadyTimeout,
		KnownHostsFile:     o.KnownHostsFile,
		DeployPath:         strings.TrimRight(o.DeployPath, "/"),
		ReleasesFolder:     strings.Trim(o.ReleasesFolder, "/"),
		CurrentReleaseLink: strings.Trim(o.CurrentReleaseLink, "/"),
		SharedFolder:       strings.Trim(o.SharedFolder, "/"),
		SynchronizedFolder: strings.Trim(o.SynchronizedFolder, "/"),
		LocalPath:          o.LocalPath,
		Exclude:            o.Exclude,
		RsyncOptions:       o.RsyncOptions,
		Mode:               Mode(o.Mode),
		ArchiveType:        ArchiveType(o.ArchiveType),
		ArchiveName:        o.ArchiveName,
		Gzip:               o.Gzip != nil && *o.Gzip,
		DeleteLocalArchive: o.DeleteLocalArchiveAfterDeployment == nil || *o.DeleteLocalArchiveAfterDeployment,
		ReleasesToKeep:     DefaultReleasesToKeep,
		AtomicCutover:      o.AtomicCutover,
		AllowRemove:        o.AllowRemove,
		Share:              o.Share,
		Create:             o.Create,
		MakeWritable:       o.MakeWritable,
		MakeExecutable:     o.MakeExecutable,
		Hooks:              o.Callbacks,
	}

	if cfg.DeployPath == "" && strings.HasPrefix(o.DeployPath, "/") {
		cfg.DeployPath = "/"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeArchive
	}
	if cfg.ArchiveType == "" && cfg.Mode == ModeArchive {
		cfg.ArchiveType = ArchiveTar
		if strings.HasSuffix(strings.ToLower(cfg.ArchiveName), ".zip") {
			cfg.ArchiveType = ArchiveZip
		}
	}
	if o.ReleasesToKeep != nil {
		cfg.ReleasesToKeep = *o.ReleasesToKeep
	}
	if cfg.ReleasesToKeep < 1 {
		cfg.ReleasesToKeep = 1
	}
	if cfg.Share == nil {
		cfg.Share = map[string]ShareEntry{}
	}
	cfg.Hooks.BeforeDeploy = withFileCommands(cfg.Hooks.BeforeDeploy, o.Hooks.BeforeDeploy)
	cfg.Hooks.BeforeLink = withFileCommands(cfg.Hooks.BeforeLink, o.Hooks.BeforeLink)
	cfg.Hooks.AfterDeploy = withFileCommands(cfg.Hooks.AfterDeploy, o.Hooks.AfterDeploy)

	auth, err := resolveAuth(o)
	if err != nil {
		return nil, err
	}
	cfg.Auth = auth

	if err := validate(cfg); err != nil {
		return nil, err
	}

	tag, err := resolveTag(defaults, user)
	if err != nil {
		return nil, err
	}
	cfg.ReleaseTag = tag
	cfg.ReleasePath = paths.Join(cfg.DeployPath, cfg.ReleasesFolder, tag)

	return cfg, nil
}

func resolveAuth(o Options) (Auth, error) {
	switch {
	case o.PrivateKeyFile != "":
		return Auth{Method: AuthPrivateKey, PrivateKeyFile: o.PrivateKeyFile, Passphrase: o.Passphrase}, nil
	case o.Password != "":
		return Auth{Method: AuthPassword, Password: o.Password}, nil
	case o.Agent != "":
		return Auth{Method: AuthAgent, AgentSocket: o.Agent}, nil
	default:
		return Auth{}, errors.New(errors.ErrAuthMissing,
			"agent, password or private key required for the remote connection")
	}
}

func resolveTag(defaults, user Options) (string, error) {
	tag := user.Tag
	if user.TagFunc != nil {
		tag = user.TagFunc()
	}
	if tag == "" {
		tag = defaults.Tag
		if defaults.TagFunc != nil {
			tag = defaults.TagFunc()
		}
	}
	tag = strings.TrimSpace(tag)

	switch {
	case tag == "":
		return "", errors.New(errors.ErrReleaseTag, "release tag is empty and no default tag is available")
	case tag == "." || tag == ".." || strings.ContainsAny(tag, "/\x00") || strings.ContainsAny(tag, " \t\n"):
		return "", errors.Newf(errors.ErrReleaseTag, "invalid release tag %q", tag)
	}
	return tag, nil
}

func validate(cfg *DeploymentConfig) error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Newf(errors.ErrConfigValid, format, args...)
	}

	switch {
	case cfg.Host == "":
		return invalid("host is required")
	case cfg.DeployPath == "":
		return invalid("deploy_path is required")
	case cfg.ReleasesFolder == "":
		return invalid("releases_folder is required")
	case cfg.CurrentReleaseLink == "":
		return invalid("current_release_link is required")
	case cfg.Port < 1 || cfg.Port > 65535:
		return invalid("port %d is out of range", cfg.Port)
	}

	switch cfg.Mode {
	case ModeArchive:
		switch cfg.ArchiveType {
		case ArchiveZip, ArchiveTar:
		default:
			return invalid("unknown archive_type %q (expected zip or tar)", cfg.ArchiveType)
		}
		if cfg.ArchiveName == "" {
			return invalid("archive_name is required in archive mode")
		}
	case ModeSynchronize:
		if cfg.Auth.Method == AuthPrivateKey {
			return invalid("synchronize mode cannot be used with private key authentication, use password or agent")
		}
		if cfg.SynchronizedFolder == "" {
			return invalid("synchronized_folder is required in synchronize mode")
		}
	default:
		return invalid("unknown mode %q (expected archive or synchronize)", cfg.Mode)
	}

	for name, entry := range cfg.Share {
		if name == "" || entry.Symlink == "" {
			return invalid("share entry %q needs a symlink", name)
		}
	}
	return nil
}

func withFileCommands(point HookPoint, commands []string) HookPoint {
	if !point.Execute.IsSet() && len(commands) > 0 {
		point.Execute = StaticCommands(commands...)
	}
	return point
}

func mergeOptions(def, user Options) Options {
	o := def

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setSlice := func(dst *[]string, v []string) {
		if v != nil {
			*dst = v
		}
	}

	setString(&o.Host, user.Host)
	if user.Port != 0 {
		o.Port = user.Port
	}
	setString(&o.Username, user.Username)
	setString(&o.Password, user.Password)
	setString(&o.PrivateKeyFile, user.PrivateKeyFile)
	setString(&o.Passphrase, user.Passphrase)
	setString(&o.Agent, user.Agent)
	if user.ReadyTimeout != 0 {
		o.ReadyTimeout = user.ReadyTimeout
	}
	setString(&o.KnownHostsFile, user.KnownHostsFile)

	setString(&o.DeployPath, user.DeployPath)
	setString(&o.ReleasesFolder, user.ReleasesFolder)
	setString(&o.CurrentReleaseLink, user.CurrentReleaseLink)
	setString(&o.SharedFolder, user.SharedFolder)
	setString(&o.SynchronizedFolder, user.SynchronizedFolder)

	setString(&o.LocalPath, user.LocalPath)
	setSlice(&o.Exclude, user.Exclude)
	setSlice(&o.RsyncOptions, user.RsyncOptions)

	setString(&o.Mode, user.Mode)
	setString(&o.ArchiveType, user.ArchiveType)
	setString(&o.ArchiveName, user.ArchiveName)
	if user.Gzip != nil {
		o.Gzip = user.Gzip
	}
	if user.DeleteLocalArchiveAfterDeployment != nil {
		o.DeleteLocalArchiveAfterDeployment = user.DeleteLocalArchiveAfterDeployment
	}

	if user.ReleasesToKeep != nil {
		o.ReleasesToKeep = user.ReleasesToKeep
	}
	// Tag and TagFunc are resolved separately so the default generator
	// only runs when the user gives nothing.
	o.AtomicCutover = def.AtomicCutover || user.AtomicCutover
	o.AllowRemove = def.AllowRemove || user.AllowRemove

	if len(def.Share) > 0 || len(user.Share) > 0 {
		share := make(map[string]ShareEntry, len(def.Share)+len(user.Share))
		for k, v := range def.Share {
			share[k] = v
		}
		for k, v := range user.Share {
			base := share[k]
			if v.Symlink != "" {
				base.Symlink = v.Symlink
			}
			if v.Mode != "" {
				base.Mode = v.Mode
			}
			share[k] = base
		}
		o.Share = share
	}
	setSlice(&o.Create, user.Create)
	setSlice(&o.MakeWritable, user.MakeWritable)
	setSlice(&o.MakeExecutable, user.MakeExecutable)

	setSlice(&o.Hooks.BeforeDeploy, user.Hooks.BeforeDeploy)
	setSlice(&o.Hooks.BeforeLink, user.Hooks.BeforeLink)
	setSlice(&o.Hooks.AfterDeploy, user.Hooks.AfterDeploy)

	o.Callbacks = Hooks{
		BeforeDeploy: mergeHookPoint(def.Callbacks.BeforeDeploy, user.Callbacks.BeforeDeploy),
		BeforeLink:   mergeHookPoint(def.Callbacks.BeforeLink, user.Callbacks.BeforeLink),
		AfterDeploy:  mergeHookPoint(def.Callbacks.AfterDeploy, user.Callbacks.AfterDeploy),
	}

	return o
}
