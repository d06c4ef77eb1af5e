package transfer

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DryRunChannel prints the transfers it would perform.
type DryRunChannel struct {
	Output io.Writer
}

// Upload prints the upload.
func (c *DryRunChannel) Upload(ctx context.Context, localFile, remoteDir string) error {
	fmt.Fprintf(c.out(), "[dry-run] upload %s -> %s\n", localFile, remoteDir)
	return ctx.Err()
}

// Sync prints the sync and its excludes.
func (c *DryRunChannel) Sync(ctx context.Context, localDir, remoteDir string, excludes []string) error {
	line := fmt.Sprintf("[dry-run] sync %s -> %s", localDir, remoteDir)
	if len(excludes) > 0 {
		line += " (exclude " + strings.Join(excludes, ", ") + ")"
	}
	fmt.Fprintln(c.out(), line)
	return ctx.Err()
}

// Close does nothing.
func (c *DryRunChannel) Close() error {
	return nil
}

func (c *DryRunChannel) out() io.Writer {
	if c.Output == nil {
		return io.Discard
	}
	return c.Output
}
