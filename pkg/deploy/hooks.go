package deploy

import (
	"context"
	stderrors "errors"

	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
)

// The orchestrator is the hook context.
var _ config.Deployer = (*Orchestrator)(nil)

// Config returns the resolved configuration of the run.
func (o *Orchestrator) Config() *config.DeploymentConfig {
	return o.cfg
}

// ReleaseTag returns the tag of the release being deployed.
func (o *Orchestrator) ReleaseTag() string {
	return o.cfg.ReleaseTag
}

// ReleasePath returns the remote directory of the release being deployed.
func (o *Orchestrator) ReleasePath() string {
	return o.cfg.ReleasePath
}

// Exec runs command through the session of the run and returns its
// standard output. It fails before the session is connected.
func (o *Orchestrator) Exec(ctx context.Context, command string) (string, error) {
	result, err := o.run(ctx, command)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

func (o *Orchestrator) runHookPoint(ctx context.Context, name string, point config.HookPoint) error {
	if err := o.runHook(ctx, name, point.Callback); err != nil {
		return err
	}
	return o.runHook(ctx, name, point.Execute)
}

func (o *Orchestrator) runHook(ctx context.Context, name string, hook config.Hook) error {
	switch hook.Kind {
	case config.HookDirect:
		o.logger.Debug().Str("hook", name).Msg("Running callback")
		if err := hook.Direct(ctx, o); err != nil {
			return hookError(name, err)
		}
	case config.HookCommands:
		commands := hook.Commands(o)
		o.logger.Debug().Str("hook", name).Int("commands", len(commands)).Msg("Running hook commands")
		for _, command := range commands {
			if err := o.exec(ctx, command); err != nil {
				return hookError(name, err)
			}
		}
	}
	return nil
}

// hookError wraps err as a HOOK error, keeping the command details of a
// failed remote command.
func hookError(name string, err error) error {
	var deployErr *errors.DeployError
	if stderrors.As(err, &deployErr) && deployErr.Code == errors.ErrHook {
		return err
	}
	wrapped := errors.Wrapf(err, errors.ErrHook, "%s hook failed", name).WithDetail("hook", name)
	if deployErr != nil {
		for _, key := range []string{errors.DetailCommand, errors.DetailStderr, errors.DetailExitStatus} {
			if v, ok := deployErr.Details[key]; ok {
				wrapped.WithDetail(key, v)
			}
		}
	}
	return wrapped
}
