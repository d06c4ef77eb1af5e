package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func privateKeyPEM(t *testing.T, passphrase string) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "deploy key")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "deploy key", []byte(passphrase))
	}
	require.NoError(t, err)
	return pem.EncodeToMemory(block)
}

func TestParseSigner(t *testing.T) {
	t.Run("plain key", func(t *testing.T) {
		signer, err := parseSigner(privateKeyPEM(t, ""), "")
		require.NoError(t, err)
		assert.Equal(t, ssh.KeyAlgoED25519, signer.PublicKey().Type())
	})

	t.Run("encrypted key with passphrase", func(t *testing.T) {
		_, err := parseSigner(privateKeyPEM(t, "hunter2"), "hunter2")
		require.NoError(t, err)
	})

	t.Run("encrypted key without passphrase", func(t *testing.T) {
		_, err := parseSigner(privateKeyPEM(t, "hunter2"), "")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrAuthFailed))
		assert.Contains(t, err.Error(), "passphrase")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseSigner([]byte("not a key"), "")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrAuthFailed))
	})
}

func TestAuthMethods(t *testing.T) {
	t.Run("private key file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "id_ed25519")
		require.NoError(t, os.WriteFile(path, privateKeyPEM(t, ""), 0600))

		methods, closer, err := authMethods(config.Auth{Method: config.AuthPrivateKey, PrivateKeyFile: path})
		require.NoError(t, err)
		assert.Len(t, methods, 1)
		assert.Nil(t, closer)
	})

	t.Run("missing private key file", func(t *testing.T) {
		_, _, err := authMethods(config.Auth{Method: config.AuthPrivateKey, PrivateKeyFile: "/nonexistent/id"})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFileAccess))
	})

	t.Run("password offers keyboard interactive too", func(t *testing.T) {
		methods, _, err := authMethods(config.Auth{Method: config.AuthPassword, Password: "secret"})
		require.NoError(t, err)
		assert.Len(t, methods, 2)
	})

	t.Run("unreachable agent", func(t *testing.T) {
		_, _, err := authMethods(config.Auth{Method: config.AuthAgent, AgentSocket: filepath.Join(t.TempDir(), "agent.sock")})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrAuthFailed))
	})

	t.Run("no method", func(t *testing.T) {
		_, _, err := authMethods(config.Auth{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrAuthMissing))
	})
}

func TestHostKeyCallback(t *testing.T) {
	cb, err := hostKeyCallback("")
	require.NoError(t, err)
	assert.NotNil(t, cb)

	_, err = hostKeyCallback(filepath.Join(t.TempDir(), "missing_known_hosts"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}
