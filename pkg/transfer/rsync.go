package transfer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/rs/zerolog"
)

// Runner runs a local program and returns its combined output.
type Runner func(ctx context.Context, name string, args, env []string) ([]byte, error)

// ExecRunner runs the program with os/exec, adding env to the current
// environment.
func ExecRunner(ctx context.Context, name string, args, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// LookPath locates local programs.
var LookPath = exec.LookPath

// RsyncUsable reports whether synchronize transfers for cfg can run through
// the local rsync binary. Password auth also needs sshpass, and private key
// auth is not passed on to rsync at all.
func RsyncUsable(cfg *config.DeploymentConfig) bool {
	programs := []string{"rsync"}
	switch cfg.Auth.Method {
	case config.AuthPrivateKey:
		return false
	case config.AuthPassword:
		programs = append(programs, "sshpass")
	}
	for _, program := range programs {
		if _, err := LookPath(program); err != nil {
			return false
		}
	}
	return true
}

// RsyncChannel transfers files with the local rsync binary over ssh.
type RsyncChannel struct {
	cfg    *config.DeploymentConfig
	run    Runner
	logger zerolog.Logger
}

// NewRsyncChannel returns a channel for cfg. A nil run uses ExecRunner.
func NewRsyncChannel(cfg *config.DeploymentConfig, run Runner) *RsyncChannel {
	if run == nil {
		run = ExecRunner
	}
	return &RsyncChannel{cfg: cfg, run: run, logger: logging.GetLogger("transfer")}
}

// Sync mirrors localDir into remoteDir, deleting remote files absent
// locally.
func (c *RsyncChannel) Sync(ctx context.Context, localDir, remoteDir string, excludes []string) error {
	args := []string{"-az", "--delete"}
	args = append(args, c.cfg.RsyncOptions...)
	for _, pattern := range excludes {
		args = append(args, "--exclude="+pattern)
	}
	args = append(args,
		strings.TrimRight(localDir, "/")+"/",
		c.destination(strings.TrimRight(remoteDir, "/")+"/"),
	)
	return c.rsync(ctx, args)
}

// Upload is not supported; archives travel over sftp.
func (c *RsyncChannel) Upload(ctx context.Context, localFile, remoteDir string) error {
	return errors.Newf(errors.ErrTransfer, "rsync channel cannot upload %s", localFile)
}

// Close is a no-op; every transfer is its own rsync process.
func (c *RsyncChannel) Close() error {
	return nil
}

// Command returns the program, arguments and extra environment an rsync
// invocation with args would use.
func (c *RsyncChannel) Command(args []string) (string, []string, []string) {
	full := append([]string{"-e", c.remoteShell()}, args...)
	switch c.cfg.Auth.Method {
	case config.AuthPassword:
		return "sshpass", append([]string{"-e", "rsync"}, full...), []string{"SSHPASS=" + c.cfg.Auth.Password}
	case config.AuthAgent:
		return "rsync", full, []string{"SSH_AUTH_SOCK=" + c.cfg.Auth.AgentSocket}
	default:
		return "rsync", full, nil
	}
}

func (c *RsyncChannel) rsync(ctx context.Context, args []string) error {
	if c.cfg.Auth.Method == config.AuthPrivateKey {
		return errors.New(errors.ErrTransfer, "rsync transfers need password or agent authentication")
	}

	name, full, env := c.Command(args)
	logging.LogCommand(c.logger, name, full)

	out, err := c.run(ctx, name, full, env)
	if err != nil {
		output := strings.TrimSpace(string(out))
		return errors.Wrapf(err, errors.ErrTransfer, "rsync to %s failed", c.cfg.Host).
			WithDetail(errors.DetailCommand, name+" "+strings.Join(full, " ")).
			WithDetail(errors.DetailStderr, output)
	}
	return nil
}

func (c *RsyncChannel) destination(remoteDir string) string {
	host := c.cfg.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if c.cfg.Username != "" {
		host = c.cfg.Username + "@" + host
	}
	return fmt.Sprintf("%s:%s", host, remoteDir)
}

func (c *RsyncChannel) remoteShell() string {
	parts := []string{"ssh", "-p", strconv.Itoa(c.cfg.Port)}
	if c.cfg.KnownHostsFile != "" {
		parts = append(parts, "-o", "UserKnownHostsFile="+c.cfg.KnownHostsFile)
	} else {
		parts = append(parts, "-o", "StrictHostKeyChecking=no", "-o", "UserKnownHostsFile=/dev/null")
	}
	return shellescape.QuoteCommand(parts)
}
