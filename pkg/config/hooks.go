package config

import "context"

// HookKind tags which variant a Hook holds.
type HookKind int

const (
	HookNone HookKind = iota
	HookDirect
	HookCommands
)

// Deployer is what a hook sees of the running deploy.
type Deployer interface {
	Config() *DeploymentConfig
	ReleaseTag() string
	ReleasePath() string
	// Exec runs a command on the remote host through the deploy's session.
	Exec(ctx context.Context, command string) (string, error)
}

// Hook is either a direct callback, a generator of remote commands, or
// nothing at all.
type Hook struct {
	Kind     HookKind
	Direct   func(ctx context.Context, d Deployer) error
	Commands func(d Deployer) []string
}

// DirectHook wraps a callback run in-process.
func DirectHook(fn func(ctx context.Context, d Deployer) error) Hook {
	if fn == nil {
		return Hook{}
	}
	return Hook{Kind: HookDirect, Direct: fn}
}

// CommandHook wraps a generator of commands executed on the remote host.
func CommandHook(fn func(d Deployer) []string) Hook {
	if fn == nil {
		return Hook{}
	}
	return Hook{Kind: HookCommands, Commands: fn}
}

// StaticCommands is a CommandHook returning a fixed list.
func StaticCommands(commands ...string) Hook {
	if len(commands) == 0 {
		return Hook{}
	}
	list := append([]string(nil), commands...)
	return CommandHook(func(Deployer) []string { return list })
}

// IsSet reports whether the hook does anything.
func (h Hook) IsSet() bool {
	return h.Kind != HookNone
}

// HookPoint pairs the callback and the command list of one pipeline
// point. The callback runs first.
type HookPoint struct {
	Callback Hook
	Execute  Hook
}

// Hooks holds every hook point of the deploy pipeline.
type Hooks struct {
	BeforeDeploy HookPoint
	BeforeLink   HookPoint
	AfterDeploy  HookPoint
}

func mergeHookPoint(def, user HookPoint) HookPoint {
	if user.Callback.IsSet() {
		def.Callback = user.Callback
	}
	if user.Execute.IsSet() {
		def.Execute = user.Execute
	}
	return def
}
