package deploy

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/arthur-debert/sshrelease/pkg/archive"
	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/arthur-debert/sshrelease/pkg/paths"
	"github.com/arthur-debert/sshrelease/pkg/remote"
	"github.com/arthur-debert/sshrelease/pkg/retention"
	"github.com/arthur-debert/sshrelease/pkg/transfer"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// Archiver packages the local build.
type Archiver interface {
	Build(ctx context.Context, spec archive.Spec) (*archive.Result, error)
}

// ChannelFactory opens the transfer channel for a connected session.
type ChannelFactory func(session remote.Session, cfg *config.DeploymentConfig) (transfer.Channel, error)

// Reporter is told about pipeline progress.
type Reporter interface {
	Step(state State)
	Detail(format string, args ...interface{})
}

type nopReporter struct{}

func (nopReporter) Step(State)                    {}
func (nopReporter) Detail(string, ...interface{}) {}

// Options configures an Orchestrator. Only Config is required.
type Options struct {
	Config    *config.DeploymentConfig
	Connector remote.Connector
	Channels  ChannelFactory
	Archiver  Archiver
	// Fs holds the local build and archive.
	Fs       afero.Fs
	Reporter Reporter
	// Stream echoes remote command output while it runs.
	Stream bool
}

// DefaultChannels opens an SFTP channel over the session, except in
// synchronize mode when rsync can serve the host. Dry-run sessions get a
// channel printing to out.
func DefaultChannels(fs afero.Fs, out io.Writer) ChannelFactory {
	return func(session remote.Session, cfg *config.DeploymentConfig) (transfer.Channel, error) {
		if _, ok := session.(*remote.DryRunSession); ok {
			return &transfer.DryRunChannel{Output: out}, nil
		}
		if cfg.Mode == config.ModeSynchronize && transfer.RsyncUsable(cfg) {
			return transfer.NewRsyncChannel(cfg, nil), nil
		}
		client, ok := session.(interface{ Client() *ssh.Client })
		if !ok {
			return nil, errors.New(errors.ErrTransfer, "session cannot carry sftp transfers")
		}
		return transfer.NewSFTPChannel(client.Client(), fs)
	}
}

// Orchestrator runs one deploy or remove against one host. It is not
// reusable.
type Orchestrator struct {
	opts     Options
	cfg      *config.DeploymentConfig
	reporter Reporter
	logger   zerolog.Logger

	state   State
	release *Release
	session remote.Session
	channel transfer.Channel
	archive string
	closed  bool
}

// New returns an orchestrator with defaults filled in for unset options.
func New(opts Options) *Orchestrator {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Connector == nil {
		opts.Connector = remote.NewSSHConnector(os.Stdout)
	}
	if opts.Archiver == nil {
		opts.Archiver = archive.NewBuilder(opts.Fs)
	}
	if opts.Channels == nil {
		opts.Channels = DefaultChannels(opts.Fs, os.Stdout)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}

	logger := logging.GetLogger("deploy")
	if opts.Config != nil {
		logger = logging.WithFields(logger, map[string]interface{}{
			"host": opts.Config.Host,
			"tag":  opts.Config.ReleaseTag,
		})
	}

	return &Orchestrator{
		opts:     opts,
		cfg:      opts.Config,
		reporter: reporter,
		logger:   logger,
		state:    StateInit,
	}
}

// State returns the last state entered.
func (o *Orchestrator) State() State {
	return o.state
}

// Release returns the release being deployed, or nil before Deploy.
func (o *Orchestrator) Release() *Release {
	return o.release
}

type step struct {
	state State
	run   func(ctx context.Context) error
}

// Deploy runs the release pipeline.
func (o *Orchestrator) Deploy(ctx context.Context) (*Release, error) {
	if o.cfg == nil {
		return nil, errors.New(errors.ErrConfigValid, "no deployment configuration")
	}
	o.release = &Release{Tag: o.cfg.ReleaseTag, Path: o.cfg.ReleasePath}

	o.logger.Info().
		Str("mode", string(o.cfg.Mode)).
		Str("release", o.cfg.ReleasePath).
		Msg("Deploy started")

	if err := o.drive(ctx, o.deploySteps()); err != nil {
		return o.release, err
	}

	o.logger.Info().
		Str("release", o.release.Path).
		Strs("pruned", o.release.Pruned).
		Msg("Deploy finished")
	return o.release, nil
}

func (o *Orchestrator) deploySteps() []step {
	hooks := o.cfg.Hooks
	archiveMode := o.cfg.Mode == config.ModeArchive

	steps := []step{
		{StatePreDeployHook, func(ctx context.Context) error {
			return o.runHook(ctx, "before_deploy", hooks.BeforeDeploy.Callback)
		}},
	}
	if archiveMode {
		steps = append(steps, step{StatePackage, o.pack})
	}
	steps = append(steps,
		step{StateConnect, func(ctx context.Context) error {
			if err := o.connect(ctx); err != nil {
				return err
			}
			return o.runHook(ctx, "before_deploy", hooks.BeforeDeploy.Execute)
		}},
		step{StateMakeReleaseDir, func(ctx context.Context) error {
			return o.exec(ctx, mkdirCommand(o.cfg.ReleasePath))
		}},
		step{StateTransfer, o.transfer},
	)
	if archiveMode {
		steps = append(steps, step{StateExtract, o.extract})
	}
	steps = append(steps,
		step{StatePreLinkHook, func(ctx context.Context) error {
			return o.runHookPoint(ctx, "before_link", hooks.BeforeLink)
		}},
		step{StateLinkShared, o.linkShared},
		step{StateCreateExtraDirs, func(ctx context.Context) error {
			return o.eachItem(ctx, o.cfg.Create, mkdirCommand)
		}},
		step{StateMakeWritable, func(ctx context.Context) error {
			return o.eachItem(ctx, o.cfg.MakeWritable, func(p string) string { return "chmod ugo+w " + q(p) })
		}},
		step{StateMakeExecutable, func(ctx context.Context) error {
			return o.eachItem(ctx, o.cfg.MakeExecutable, func(p string) string { return "chmod ugo+x " + q(p) })
		}},
		step{StateCutover, o.cutover},
		step{StatePostDeployHook, func(ctx context.Context) error {
			return o.runHookPoint(ctx, "after_deploy", hooks.AfterDeploy)
		}},
		step{StateCleanup, o.cleanup},
	)
	if archiveMode && o.cfg.DeleteLocalArchive {
		steps = append(steps, step{StateDeleteLocalArtifact, o.deleteLocalArchive})
	}
	return append(steps, step{StateClose, o.closeStep})
}

// Remove deletes the whole deploy path on the remote host. It requires
// allow_remove and never connects without it.
func (o *Orchestrator) Remove(ctx context.Context) error {
	if o.cfg == nil {
		return errors.New(errors.ErrConfigValid, "no deployment configuration")
	}
	if !o.cfg.AllowRemove {
		return errors.New(errors.ErrPermissionDenied,
			"remove is disabled, set allow_remove to delete the deploy path").
			WithDetail(errors.DetailState, string(StateInit))
	}
	if o.cfg.DeployPath == "/" {
		return errors.New(errors.ErrPermissionDenied, "refusing to remove /").
			WithDetail(errors.DetailState, string(StateInit))
	}

	o.logger.Warn().Str("path", o.cfg.DeployPath).Msg("Removing deploy path")

	return o.drive(ctx, []step{
		{StateConnect, o.connect},
		{StateRemoveAll, func(ctx context.Context) error {
			return o.exec(ctx, removeCommand(o.cfg))
		}},
		{StateClose, o.closeStep},
	})
}

// drive runs steps in order and stops at the first failure.
func (o *Orchestrator) drive(ctx context.Context, steps []step) error {
	for _, s := range steps {
		o.state = s.state
		o.reporter.Step(s.state)

		done := logging.LogOperationStart(o.logger, string(s.state))
		err := s.run(ctx)
		if err == nil && s.state != StateClose {
			err = ctx.Err()
		}
		done()

		if err != nil {
			return o.fail(ctx, s.state, err)
		}
	}
	o.state = StateDone
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, state State, err error) error {
	err = withState(err, state)
	o.logger.Error().Err(err).Str("state", string(state)).Msg("Step failed")

	if o.release != nil && o.session != nil && !o.closed && o.release.State < ReleaseActive {
		o.rollback(context.WithoutCancel(ctx))
	}
	o.close()
	o.state = StateFailed
	return err
}

// rollback removes the release directory. Its own failure is logged and
// does not replace the error that caused it.
func (o *Orchestrator) rollback(ctx context.Context) {
	o.state = StateRollback
	o.reporter.Step(StateRollback)

	command := rollbackCommand(o.cfg)
	if _, err := o.session.Execute(ctx, command, o.opts.Stream); err != nil {
		o.logger.Error().Err(err).Str("command", command).Msg("Rollback failed")
		o.reporter.Detail("rollback failed: %v", err)
		return
	}
	o.release.State = ReleaseRolledBack
	o.logger.Warn().Str("release", o.release.Path).Msg("Release rolled back")
}

func (o *Orchestrator) closeStep(ctx context.Context) error {
	o.close()
	return nil
}

// close releases the channel and the session once.
func (o *Orchestrator) close() {
	if o.closed {
		return
	}
	o.closed = true

	if o.channel != nil {
		if err := o.channel.Close(); err != nil {
			o.logger.Warn().Err(err).Msg("Closing transfer channel failed")
		}
	}
	if o.session != nil {
		if err := o.session.Close(); err != nil {
			o.logger.Warn().Err(err).Msg("Closing session failed")
		}
	}
}

func (o *Orchestrator) connect(ctx context.Context) error {
	o.reporter.Detail("%s@%s", o.cfg.Username, o.cfg.Address())
	session, err := o.opts.Connector.Connect(ctx, o.cfg)
	if err != nil {
		return err
	}
	o.session = session
	return nil
}

func (o *Orchestrator) exec(ctx context.Context, command string) error {
	_, err := o.run(ctx, command)
	return err
}

func (o *Orchestrator) run(ctx context.Context, command string) (*remote.CommandResult, error) {
	if o.session == nil || o.closed {
		return nil, errors.New(errors.ErrCommand, "not connected").
			WithDetail(errors.DetailCommand, command)
	}
	o.reporter.Detail("%s", command)
	start := time.Now()
	result, err := o.session.Execute(ctx, command, o.opts.Stream)
	o.logger.Debug().Str("command", command).Dur("duration", time.Since(start)).Err(err).Msg("Executed")
	return result, err
}

func (o *Orchestrator) pack(ctx context.Context) error {
	result, err := o.opts.Archiver.Build(ctx, archive.SpecFor(o.cfg))
	if err != nil {
		return err
	}
	o.archive = result.Path
	o.reporter.Detail("%s (%d files, %d bytes)", result.Path, result.Files, result.Bytes)
	return nil
}

func (o *Orchestrator) transfer(ctx context.Context) error {
	channel, err := o.opts.Channels(o.session, o.cfg)
	if err != nil {
		return err
	}
	o.channel = channel

	switch o.cfg.Mode {
	case config.ModeSynchronize:
		syncPath := o.cfg.SynchronizedPath()
		o.reporter.Detail("%s -> %s", o.cfg.LocalPath, syncPath)
		if err := channel.Sync(ctx, o.cfg.LocalPath, syncPath, o.cfg.Exclude); err != nil {
			return err
		}
		o.release.State = ReleaseUploaded
		if err := o.exec(ctx, materializeCommand(o.cfg)); err != nil {
			return err
		}
		o.release.State = ReleaseExtracted
	default:
		o.reporter.Detail("%s -> %s", o.archive, o.cfg.ReleasePath)
		if err := channel.Upload(ctx, o.archive, o.cfg.ReleasePath); err != nil {
			return err
		}
		o.release.State = ReleaseUploaded
	}
	return nil
}

func (o *Orchestrator) extract(ctx context.Context) error {
	if err := o.exec(ctx, extractCommand(o.cfg)); err != nil {
		return err
	}
	o.release.State = ReleaseExtracted
	return nil
}

func (o *Orchestrator) linkShared(ctx context.Context) error {
	for _, name := range o.cfg.SharedNames() {
		link := sharedLink(o.cfg, name)
		o.reporter.Detail("%s ==> %s", link.LinkPath, link.Target)
		if err := o.exec(ctx, sharedLinkCommand(link)); err != nil {
			return err
		}
		o.release.SharedLinks = append(o.release.SharedLinks, link)
	}
	o.release.State = ReleaseLinked
	return nil
}

func (o *Orchestrator) eachItem(ctx context.Context, items []string, build func(string) string) error {
	for _, item := range items {
		if err := o.exec(ctx, build(o.releaseItem(item))); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) releaseItem(item string) string {
	return paths.Join(o.cfg.ReleasePath, item)
}

func (o *Orchestrator) cutover(ctx context.Context) error {
	if err := o.exec(ctx, cutoverCommand(o.cfg)); err != nil {
		return err
	}
	o.release.State = ReleaseActive
	o.release.CurrentTarget = currentTarget(o.cfg)
	return nil
}

func (o *Orchestrator) cleanup(ctx context.Context) error {
	if o.session == nil {
		return nil
	}
	result, err := retention.NewManager(o.session).Prune(ctx, o.cfg.ReleasesPath(), o.cfg.ReleasesToKeep, o.cfg.ReleaseTag)
	if err != nil {
		return err
	}
	o.release.Pruned = result.Removed
	for _, name := range result.Removed {
		o.reporter.Detail("removed %s", name)
	}
	return nil
}

func (o *Orchestrator) deleteLocalArchive(ctx context.Context) error {
	if o.archive == "" {
		return nil
	}
	if err := o.opts.Fs.Remove(o.archive); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot delete local archive %s", o.archive)
	}
	return nil
}

// withState records the failing state on err, wrapping plain errors.
func withState(err error, state State) error {
	var deployErr *errors.DeployError
	if stderrors.As(err, &deployErr) {
		deployErr.WithDetail(errors.DetailState, string(state))
		return err
	}
	return errors.Wrapf(err, errors.ErrInternal, "%s failed", state).
		WithDetail(errors.DetailState, string(state))
}
