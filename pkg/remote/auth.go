package remote

import (
	"errors"
	"io"
	"net"
	"os"

	"github.com/arthur-debert/sshrelease/pkg/config"
	deployerrors "github.com/arthur-debert/sshrelease/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// authMethods builds the ssh auth method for the resolved credentials.
// The returned closer releases the agent connection, if any.
func authMethods(auth config.Auth) ([]ssh.AuthMethod, io.Closer, error) {
	switch auth.Method {
	case config.AuthPrivateKey:
		signer, err := loadSigner(auth.PrivateKeyFile, auth.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil, nil

	case config.AuthPassword:
		password := auth.Password
		answer := func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = password
			}
			return answers, nil
		}
		return []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(answer),
		}, nil, nil

	case config.AuthAgent:
		conn, err := net.Dial("unix", auth.AgentSocket)
		if err != nil {
			return nil, nil, deployerrors.Wrapf(err, deployerrors.ErrAuthFailed,
				"cannot reach ssh agent at %s", auth.AgentSocket)
		}
		client := agent.NewClient(conn)
		return []ssh.AuthMethod{ssh.PublicKeysCallback(client.Signers)}, conn, nil

	default:
		return nil, nil, deployerrors.New(deployerrors.ErrAuthMissing,
			"agent, password or private key required for the remote connection")
	}
}

func loadSigner(path, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deployerrors.Wrapf(err, deployerrors.ErrFileAccess, "cannot read private key %s", path)
	}
	return parseSigner(data, passphrase)
}

func parseSigner(data []byte, passphrase string) (ssh.Signer, error) {
	var (
		signer ssh.Signer
		err    error
	)
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
	}

	var missing *ssh.PassphraseMissingError
	switch {
	case errors.As(err, &missing):
		return nil, deployerrors.New(deployerrors.ErrAuthFailed, "private key is encrypted, a passphrase is required")
	case err != nil:
		return nil, deployerrors.Wrap(err, deployerrors.ErrAuthFailed, "cannot parse private key")
	}
	return signer, nil
}

func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, deployerrors.Wrapf(err, deployerrors.ErrConfigValid, "cannot load known hosts from %s", knownHostsFile)
	}
	return cb, nil
}
