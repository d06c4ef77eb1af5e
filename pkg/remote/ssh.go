package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/sshrelease/pkg/config"
	deployerrors "github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// DefaultReadyTimeout bounds connection setup when the config leaves it unset.
const DefaultReadyTimeout = 20 * time.Second

// SSHConnector dials the remote host over SSH.
type SSHConnector struct {
	// Output receives streamed command output. Nil discards it.
	Output io.Writer
	Logger zerolog.Logger
}

// NewSSHConnector returns a connector streaming command output to out.
func NewSSHConnector(out io.Writer) *SSHConnector {
	return &SSHConnector{Output: out, Logger: logging.GetLogger("remote")}
}

// Connect opens and authenticates the connection. Connection setup,
// including the SSH handshake, must complete within cfg.ReadyTimeout.
func (c *SSHConnector) Connect(ctx context.Context, cfg *config.DeploymentConfig) (Session, error) {
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	addr := cfg.Address()

	auth, agentConn, err := authMethods(cfg.Auth)
	if err != nil {
		return nil, err
	}
	closeAgent := func() {
		if agentConn != nil {
			_ = agentConn.Close()
		}
	}

	hostKeys, err := hostKeyCallback(cfg.KnownHostsFile)
	if err != nil {
		closeAgent()
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}

	c.Logger.Debug().
		Str("address", addr).
		Str("user", cfg.Username).
		Str("auth", string(cfg.Auth.Method)).
		Dur("timeout", timeout).
		Msg("Connecting")

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		closeAgent()
		return nil, classifyConnectError(err, cfg.Host, timeout)
	}

	deadline, _ := dialCtx.Deadline()
	_ = conn.SetDeadline(deadline)
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		closeAgent()
		return nil, classifyConnectError(err, cfg.Host, timeout)
	}
	_ = conn.SetDeadline(time.Time{})

	out := c.Output
	if out == nil {
		out = io.Discard
	}

	return &SSHSession{
		client:    ssh.NewClient(sshConn, chans, reqs),
		agentConn: agentConn,
		output:    out,
		logger:    c.Logger.With().Str("host", cfg.Host).Logger(),
	}, nil
}

func classifyConnectError(err error, host string, timeout time.Duration) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(err.Error(), "i/o timeout"):
		return deployerrors.Wrapf(err, deployerrors.ErrConnectTimeout,
			"connection to %s not ready within %s", host, timeout).
			WithDetail(deployerrors.DetailHost, host)
	case strings.Contains(err.Error(), "unable to authenticate"):
		return deployerrors.Wrapf(err, deployerrors.ErrAuthFailed, "authentication to %s rejected", host).
			WithDetail(deployerrors.DetailHost, host)
	default:
		return deployerrors.Wrapf(err, deployerrors.ErrConnect, "cannot connect to %s", host).
			WithDetail(deployerrors.DetailHost, host)
	}
}

// SSHSession runs commands over one SSH connection, one at a time.
type SSHSession struct {
	mu        sync.Mutex
	client    *ssh.Client
	agentConn io.Closer
	output    io.Writer
	logger    zerolog.Logger

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Client exposes the underlying connection so other channels, like SFTP,
// can reuse the authenticated transport.
func (s *SSHSession) Client() *ssh.Client {
	return s.client
}

// Execute runs command in a new SSH channel and waits for it to exit.
func (s *SSHSession) Execute(ctx context.Context, command string, stream bool) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, deployerrors.New(deployerrors.ErrCommand, "session is closed").
			WithDetail(deployerrors.DetailCommand, command)
	}

	start := time.Now()
	result := &CommandResult{Command: command}

	channel, err := s.client.NewSession()
	if err != nil {
		return result, deployerrors.Wrap(err, deployerrors.ErrCommand, "cannot open channel").
			WithDetail(deployerrors.DetailCommand, command)
	}
	defer channel.Close()

	var stdout, stderr bytes.Buffer
	if stream {
		channel.Stdout = io.MultiWriter(&stdout, s.output)
		channel.Stderr = io.MultiWriter(&stderr, s.output)
	} else {
		channel.Stdout = &stdout
		channel.Stderr = &stderr
	}

	done := make(chan error, 1)
	go func() { done <- channel.Run(command) }()

	select {
	case <-ctx.Done():
		_ = channel.Signal(ssh.SIGKILL)
		_ = channel.Close()
		<-done
		result.Duration = time.Since(start)
		return result, deployerrors.Wrap(ctx.Err(), deployerrors.ErrCommand, "remote command interrupted").
			WithDetail(deployerrors.DetailCommand, command)
	case err = <-done:
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.Duration = time.Since(start)

	s.logger.Debug().
		Str("command", command).
		Dur("duration", result.Duration).
		Int("stdoutBytes", stdout.Len()).
		Int("stderrBytes", stderr.Len()).
		Msg("Remote command")

	if err != nil {
		// -1 covers a missing exit status and transport failures.
		result.ExitStatus = -1
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitStatus = exitErr.ExitStatus()
		}
		s.logger.Debug().Str("command", command).Str("stderr", result.Stderr).Msg("Remote command failed")
		return result, deployerrors.NewCommandError(command, result.Stderr, result.ExitStatus, err)
	}

	return result, nil
}

// Close releases the connection and the agent socket. Later calls return
// the first result.
func (s *SSHSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		s.closeErr = s.client.Close()
		if s.agentConn != nil {
			_ = s.agentConn.Close()
		}
		s.logger.Debug().Msg("Connection closed")
	})
	return s.closeErr
}
