package transfer_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunChannel(t *testing.T) {
	var out bytes.Buffer
	var channel transfer.Channel = &transfer.DryRunChannel{Output: &out}

	require.NoError(t, channel.Upload(context.Background(), "release.tar.gz", "/srv/app/releases/r4"))
	require.NoError(t, channel.Sync(context.Background(), "www", "/srv/app/synchronized", []string{".git"}))
	require.NoError(t, channel.Close())

	assert.Equal(t,
		"[dry-run] upload release.tar.gz -> /srv/app/releases/r4\n"+
			"[dry-run] sync www -> /srv/app/synchronized (exclude .git)\n",
		out.String())
}
