package retention_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/retention"
	"github.com/arthur-debert/sshrelease/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(t *testing.T, fake *testutil.FakeRemote) *retention.Manager {
	t.Helper()
	s, err := fake.Connect(context.Background(), nil)
	require.NoError(t, err)
	return retention.NewManager(s)
}

func TestPruneKeepsMostRecent(t *testing.T) {
	fake := testutil.NewFakeRemote().Respond("ls -1", "r1\nr2\nr3\nr4\n")

	result, err := session(t, fake).Prune(context.Background(), "/srv/app/releases", 3, "r4")
	require.NoError(t, err)

	assert.Equal(t, []string{"r4", "r3", "r2"}, result.Kept)
	assert.Equal(t, []string{"r1"}, result.Removed)
	assert.Equal(t, []string{
		"ls -1 /srv/app/releases",
		"cd /srv/app/releases && rm -rf r1",
	}, fake.Commands())
}

func TestPruneNothingSurplus(t *testing.T) {
	fake := testutil.NewFakeRemote().Respond("ls -1", "r1\nr2\n")

	result, err := session(t, fake).Prune(context.Background(), "/srv/app/releases", 3, "r2")
	require.NoError(t, err)

	assert.Equal(t, []string{"r2", "r1"}, result.Kept)
	assert.Empty(t, result.Removed)
	assert.Equal(t, []string{"ls -1 /srv/app/releases"}, fake.Commands(), "no delete command is issued")
}

func TestPruneClampsKeep(t *testing.T) {
	fake := testutil.NewFakeRemote().Respond("ls -1", "a\nb\nc\n")

	result, err := session(t, fake).Prune(context.Background(), "/srv/app/releases", 0, "b")
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, result.Kept)
	assert.Equal(t, []string{"c", "a"}, result.Removed)
	assert.True(t, fake.Ran("cd /srv/app/releases && rm -rf c a"))
}

func TestPruneDeletesExactlySurplus(t *testing.T) {
	for m := 0; m <= 6; m++ {
		for k := 1; k <= 4; k++ {
			t.Run(fmt.Sprintf("m=%d,k=%d", m, k), func(t *testing.T) {
				listing := ""
				for i := 1; i <= m; i++ {
					listing += fmt.Sprintf("2024-01-0%d-00-00-00-000-UTC\n", i)
				}
				fake := testutil.NewFakeRemote().Respond("ls -1", listing)

				result, err := session(t, fake).Prune(context.Background(), "/srv/releases", k, "")
				require.NoError(t, err)

				surplus := m - k
				if surplus < 0 {
					surplus = 0
				}
				assert.Len(t, result.Removed, surplus)
				assert.Len(t, result.Kept, m-surplus)
				for i, name := range result.Kept {
					assert.Equal(t, fmt.Sprintf("2024-01-0%d-00-00-00-000-UTC", m-i), name)
				}
			})
		}
	}
}

func TestPruneQuotesUnsafeNames(t *testing.T) {
	fake := testutil.NewFakeRemote().Respond("ls -1", "r1\nold release\nr2\n")

	_, err := session(t, fake).Prune(context.Background(), "/srv/my app/releases", 1, "r2")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ls -1 '/srv/my app/releases'",
		"cd '/srv/my app/releases' && rm -rf r1 'old release'",
	}, fake.Commands())
}

func TestPruneListingFailure(t *testing.T) {
	fake := testutil.NewFakeRemote().FailOn("ls -1", "ls: cannot access '/srv/releases': No such file or directory")

	_, err := session(t, fake).Prune(context.Background(), "/srv/releases", 3, "r1")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommand))
}

func TestOrder(t *testing.T) {
	assert.Equal(t, []string{"r2", "r9", "r3", "r1"}, retention.Order([]string{"r1", "r2", "r3", "r9"}, "r2"))
	assert.Equal(t, []string{"r3", "r1"}, retention.Order([]string{"r1", "r3"}, "missing"))
	assert.Empty(t, retention.Order(nil, "r1"))
}
