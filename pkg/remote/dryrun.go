package remote

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/arthur-debert/sshrelease/pkg/config"
)

// DryRunConnector hands out sessions that print commands instead of
// running them.
type DryRunConnector struct {
	Output io.Writer
}

// Connect never touches the network.
func (c *DryRunConnector) Connect(ctx context.Context, cfg *config.DeploymentConfig) (Session, error) {
	out := c.Output
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "[dry-run] connect %s@%s\n", cfg.Username, cfg.Address())
	return &DryRunSession{output: out}, nil
}

// DryRunSession records commands and reports success with empty output.
type DryRunSession struct {
	mu       sync.Mutex
	output   io.Writer
	commands []string
	closed   bool
}

// Execute prints and records command.
func (s *DryRunSession) Execute(ctx context.Context, command string, stream bool) (*CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	fmt.Fprintf(s.output, "[dry-run] %s\n", command)
	return &CommandResult{Command: command}, nil
}

// Commands returns the commands seen so far.
func (s *DryRunSession) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Close marks the session closed.
func (s *DryRunSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		fmt.Fprintln(s.output, "[dry-run] close")
	}
	return nil
}
