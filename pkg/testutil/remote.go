package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/remote"
)

type scriptedFailure struct {
	substr string
	stderr string
	status int
}

type scriptedResponse struct {
	prefix string
	stdout string
}

// FakeRemote is a scripted remote host. It implements remote.Connector and
// records every command its sessions receive. Commands succeed with empty
// output unless a response or failure was registered for them.
type FakeRemote struct {
	mu         sync.Mutex
	commands   []string
	responses  []scriptedResponse
	failures   []scriptedFailure
	connectErr error
	connects   int
	closes     int
}

// NewFakeRemote creates a remote where every command succeeds.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{}
}

// Respond makes commands starting with prefix print stdout.
func (f *FakeRemote) Respond(prefix, stdout string) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, scriptedResponse{prefix: prefix, stdout: stdout})
	return f
}

// FailOn makes commands containing substr exit with status 1 and stderr.
func (f *FakeRemote) FailOn(substr, stderr string) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, scriptedFailure{substr: substr, stderr: stderr, status: 1})
	return f
}

// FailConnect makes Connect return err.
func (f *FakeRemote) FailConnect(err error) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
	return f
}

// Connect opens a new fake session.
func (f *FakeRemote) Connect(ctx context.Context, cfg *config.DeploymentConfig) (remote.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return &fakeSession{remote: f}, nil
}

// Commands returns every command executed so far, in order.
func (f *FakeRemote) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Ran reports whether some executed command contains substr.
func (f *FakeRemote) Ran(substr string) bool {
	for _, cmd := range f.Commands() {
		if strings.Contains(cmd, substr) {
			return true
		}
	}
	return false
}

// Connects returns the number of Connect calls.
func (f *FakeRemote) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// Closes returns the number of session Close calls.
func (f *FakeRemote) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type fakeSession struct {
	remote *FakeRemote
	closed bool
}

func (s *fakeSession) Execute(ctx context.Context, command string, stream bool) (*remote.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCommand, "remote command interrupted").
			WithDetail(errors.DetailCommand, command)
	}

	f := s.remote
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.ErrCommand, "session is closed").
			WithDetail(errors.DetailCommand, command)
	}
	f.commands = append(f.commands, command)

	result := &remote.CommandResult{Command: command}
	for _, failure := range f.failures {
		if strings.Contains(command, failure.substr) {
			result.Stderr = failure.stderr
			result.ExitStatus = failure.status
			cause := fmt.Errorf("Process exited with status %d", failure.status)
			return result, errors.NewCommandError(command, failure.stderr, failure.status, cause)
		}
	}
	for _, response := range f.responses {
		if strings.HasPrefix(command, response.prefix) {
			result.Stdout = response.stdout
			break
		}
	}
	return result, nil
}

func (s *fakeSession) Close() error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	s.closed = true
	s.remote.closes++
	return nil
}
