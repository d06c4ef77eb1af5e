package transfer

import (
	"context"
	"io"
)

// Channel moves files to the remote host.
type Channel interface {
	// Upload copies localFile to remoteDir/<basename of localFile>.
	Upload(ctx context.Context, localFile, remoteDir string) error
	// Sync mirrors the content of localDir into remoteDir, skipping paths
	// matching one of the exclude globs.
	Sync(ctx context.Context, localDir, remoteDir string, excludes []string) error
	Close() error
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
