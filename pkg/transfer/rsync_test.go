package transfer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRun struct {
	name string
	args []string
	env  []string
}

func recorder(runs *[]recordedRun, out string, err error) transfer.Runner {
	return func(ctx context.Context, name string, args, env []string) ([]byte, error) {
		*runs = append(*runs, recordedRun{name: name, args: args, env: env})
		return []byte(out), err
	}
}

func rsyncConfig() *config.DeploymentConfig {
	return &config.DeploymentConfig{
		Host:         "example.org",
		Port:         2222,
		Username:     "deploy",
		Auth:         config.Auth{Method: config.AuthAgent, AgentSocket: "/tmp/agent.sock"},
		RsyncOptions: []string{"--checksum"},
	}
}

func TestRsyncSyncWithAgent(t *testing.T) {
	var runs []recordedRun
	channel := transfer.NewRsyncChannel(rsyncConfig(), recorder(&runs, "", nil))

	err := channel.Sync(context.Background(), "www", "/srv/app/synchronized", []string{"node_modules/**", ".git"})
	require.NoError(t, err)

	require.Len(t, runs, 1)
	assert.Equal(t, "rsync", runs[0].name)
	assert.Equal(t, []string{
		"-e", "ssh -p 2222 -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null",
		"-az", "--delete", "--checksum",
		"--exclude=node_modules/**", "--exclude=.git",
		"www/", "deploy@example.org:/srv/app/synchronized/",
	}, runs[0].args)
	assert.Equal(t, []string{"SSH_AUTH_SOCK=/tmp/agent.sock"}, runs[0].env)
}

func TestRsyncWithPasswordUsesSSHPass(t *testing.T) {
	cfg := rsyncConfig()
	cfg.Auth = config.Auth{Method: config.AuthPassword, Password: "secret"}
	cfg.KnownHostsFile = "/home/deploy/.ssh/known_hosts"
	cfg.RsyncOptions = nil

	var runs []recordedRun
	channel := transfer.NewRsyncChannel(cfg, recorder(&runs, "", nil))

	require.NoError(t, channel.Sync(context.Background(), "www", "/srv/app/synchronized", nil))

	require.Len(t, runs, 1)
	assert.Equal(t, "sshpass", runs[0].name)
	assert.Equal(t, []string{
		"-e", "rsync",
		"-e", "ssh -p 2222 -o UserKnownHostsFile=/home/deploy/.ssh/known_hosts",
		"-az", "--delete", "www/", "deploy@example.org:/srv/app/synchronized/",
	}, runs[0].args)
	assert.Equal(t, []string{"SSHPASS=secret"}, runs[0].env)
}

func TestRsyncFailure(t *testing.T) {
	var runs []recordedRun
	channel := transfer.NewRsyncChannel(rsyncConfig(),
		recorder(&runs, "rsync: connection unexpectedly closed\n", fmt.Errorf("exit status 12")))

	err := channel.Sync(context.Background(), "www", "/srv/app/synchronized", nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTransfer))
	assert.Equal(t, "rsync: connection unexpectedly closed", errors.GetErrorDetails(err)[errors.DetailStderr])
}

func TestRsyncRejectsPrivateKeyAuth(t *testing.T) {
	cfg := rsyncConfig()
	cfg.Auth = config.Auth{Method: config.AuthPrivateKey, PrivateKeyFile: "/keys/id"}

	var runs []recordedRun
	err := transfer.NewRsyncChannel(cfg, recorder(&runs, "", nil)).Sync(context.Background(), "www", "/srv", nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTransfer))
	assert.Empty(t, runs)
}

func TestRsyncIPv6Destination(t *testing.T) {
	cfg := rsyncConfig()
	cfg.Host = "::1"

	var runs []recordedRun
	require.NoError(t, transfer.NewRsyncChannel(cfg, recorder(&runs, "", nil)).
		Sync(context.Background(), "www/", "/srv/sync", nil))
	assert.Equal(t, "deploy@[::1]:/srv/sync/", runs[0].args[len(runs[0].args)-1])
	assert.Equal(t, "www/", runs[0].args[len(runs[0].args)-2])
}

func TestRsyncUploadIsUnsupported(t *testing.T) {
	var runs []recordedRun
	channel := transfer.NewRsyncChannel(rsyncConfig(), recorder(&runs, "", nil))

	err := channel.Upload(context.Background(), "release.tar.gz", "/srv/app/releases/r4")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTransfer))
	assert.Empty(t, runs)
}

func stubLookPath(t *testing.T, found ...string) {
	t.Helper()
	original := transfer.LookPath
	t.Cleanup(func() { transfer.LookPath = original })
	transfer.LookPath = func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", fmt.Errorf("%s: executable file not found in $PATH", name)
	}
}

func TestRsyncUsable(t *testing.T) {
	tests := []struct {
		name  string
		auth  config.Auth
		found []string
		want  bool
	}{
		{"agent with rsync", config.Auth{Method: config.AuthAgent}, []string{"rsync"}, true},
		{"agent without rsync", config.Auth{Method: config.AuthAgent}, nil, false},
		{"password with sshpass", config.Auth{Method: config.AuthPassword}, []string{"rsync", "sshpass"}, true},
		{"password without sshpass", config.Auth{Method: config.AuthPassword}, []string{"rsync"}, false},
		{"private key", config.Auth{Method: config.AuthPrivateKey}, []string{"rsync", "sshpass"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubLookPath(t, tt.found...)
			cfg := rsyncConfig()
			cfg.Auth = tt.auth
			assert.Equal(t, tt.want, transfer.RsyncUsable(cfg))
		})
	}
}
