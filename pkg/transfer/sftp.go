package transfer

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/arthur-debert/sshrelease/pkg/archive"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// SFTPChannel uploads files over the SFTP subsystem of an open SSH
// connection.
type SFTPChannel struct {
	client *sftp.Client
	fs     afero.Fs
	logger zerolog.Logger
}

// NewSFTPChannel opens an SFTP client on conn. Local files are read from fs.
func NewSFTPChannel(conn *ssh.Client, fs afero.Fs) (*SFTPChannel, error) {
	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTransfer, "cannot start sftp subsystem")
	}
	return newSFTPChannel(client, fs), nil
}

func newSFTPChannel(client *sftp.Client, fs afero.Fs) *SFTPChannel {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &SFTPChannel{
		client: client,
		fs:     fs,
		logger: logging.GetLogger("transfer"),
	}
}

// Upload copies localFile into remoteDir, creating remoteDir if needed.
func (c *SFTPChannel) Upload(ctx context.Context, localFile, remoteDir string) error {
	if err := c.client.MkdirAll(remoteDir); err != nil {
		return errors.Wrapf(err, errors.ErrTransfer, "cannot create remote directory %s", remoteDir)
	}
	return c.put(ctx, localFile, path.Join(remoteDir, filepath.Base(localFile)))
}

// Sync uploads every file under localDir that no exclude matches. Remote
// files absent locally are left in place.
func (c *SFTPChannel) Sync(ctx context.Context, localDir, remoteDir string, excludes []string) error {
	if err := c.client.MkdirAll(remoteDir); err != nil {
		return errors.Wrapf(err, errors.ErrTransfer, "cannot create remote directory %s", remoteDir)
	}

	count := 0
	err := afero.Walk(c.fs, localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)
		if archive.Excluded(excludes, rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := path.Join(remoteDir, rel)
		switch {
		case info.IsDir():
			return c.client.MkdirAll(target)
		case info.Mode().IsRegular():
			count++
			if err := c.put(ctx, p, target); err != nil {
				return err
			}
			return c.client.Chmod(target, info.Mode().Perm())
		default:
			c.logger.Debug().Str("path", rel).Msg("Skipping non-regular file")
			return nil
		}
	})
	if err != nil {
		if _, ok := err.(*errors.DeployError); ok {
			return err
		}
		return errors.Wrapf(err, errors.ErrTransfer, "cannot sync %s to %s", localDir, remoteDir)
	}

	c.logger.Debug().Str("local", localDir).Str("remote", remoteDir).Int("files", count).Msg("Synced directory")
	return nil
}

func (c *SFTPChannel) put(ctx context.Context, localFile, remoteFile string) error {
	src, err := c.fs.Open(localFile)
	if err != nil {
		return errors.Wrapf(err, errors.ErrTransfer, "cannot open %s", localFile)
	}
	defer src.Close()

	dst, err := c.client.Create(remoteFile)
	if err != nil {
		return errors.Wrapf(err, errors.ErrTransfer, "cannot create remote file %s", remoteFile)
	}

	n, err := io.Copy(dst, ctxReader{ctx: ctx, r: src})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrTransfer, "cannot upload %s to %s", localFile, remoteFile)
	}

	c.logger.Debug().Str("local", localFile).Str("remote", remoteFile).Int64("bytes", n).Msg("Uploaded file")
	return nil
}

// Close ends the SFTP subsystem. The SSH connection stays open.
func (c *SFTPChannel) Close() error {
	return c.client.Close()
}
