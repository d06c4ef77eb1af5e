package remote

import (
	"context"
	"time"

	"github.com/arthur-debert/sshrelease/pkg/config"
)

// CommandResult is the captured outcome of one remote command.
type CommandResult struct {
	Command    string
	Stdout     string
	Stderr     string
	ExitStatus int
	Duration   time.Duration
}

// Executor runs shell commands on the remote host.
type Executor interface {
	// Execute runs command and blocks until its output is drained. When
	// stream is true the output is also copied to the session's writer.
	Execute(ctx context.Context, command string, stream bool) (*CommandResult, error)
}

// Session is an Executor with a lifecycle. Close is idempotent.
type Session interface {
	Executor
	Close() error
}

// Connector opens sessions.
type Connector interface {
	Connect(ctx context.Context, cfg *config.DeploymentConfig) (Session, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, cfg *config.DeploymentConfig) (Session, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, cfg *config.DeploymentConfig) (Session, error) {
	return f(ctx, cfg)
}
