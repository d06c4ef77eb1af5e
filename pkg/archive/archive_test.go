package archive_test

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"sort"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/archive"
	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"www/index.php":                 "<?php echo 'hi';",
		"www/web/app.css":               "body{}",
		"www/bin/console":               "#!/usr/bin/env php",
		"www/node_modules/dep/index.js": "module.exports = 1",
		"www/var/logs/dev.log":          "log line",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return fs
}

func tarEntries(t *testing.T, data []byte, gzipped bool) map[string]string {
	t.Helper()
	var r io.Reader = bytes.NewReader(data)
	if gzipped {
		gz, err := gzip.NewReader(r)
		require.NoError(t, err)
		defer gz.Close()
		r = gz
	}

	entries := map[string]string{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(body)
	}
	return entries
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestBuildTarGz(t *testing.T) {
	fs := buildTree(t)
	builder := archive.NewBuilder(fs)

	result, err := builder.Build(context.Background(), archive.Spec{
		Source:  "www",
		Output:  "release.tar.gz",
		Type:    config.ArchiveTar,
		Gzip:    true,
		Exclude: []string{"node_modules/**", "*.log"},
	})
	require.NoError(t, err)
	assert.Equal(t, "release.tar.gz", result.Path)
	assert.Equal(t, 3, result.Files)
	assert.Positive(t, result.Bytes)

	data, err := afero.ReadFile(fs, "release.tar.gz")
	require.NoError(t, err)
	entries := tarEntries(t, data, true)

	assert.Equal(t, []string{
		"bin/", "bin/console", "index.php", "var/", "var/logs/", "web/", "web/app.css",
	}, keys(entries))
	assert.Equal(t, "<?php echo 'hi';", entries["index.php"])
}

func TestBuildPlainTar(t *testing.T) {
	fs := buildTree(t)

	_, err := archive.NewBuilder(fs).Build(context.Background(), archive.Spec{
		Source: "www",
		Output: "release.tar",
		Type:   config.ArchiveTar,
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "release.tar")
	require.NoError(t, err)
	entries := tarEntries(t, data, false)
	assert.Contains(t, entries, "node_modules/dep/index.js")
	assert.Equal(t, "body{}", entries["web/app.css"])
}

func TestBuildZip(t *testing.T) {
	fs := buildTree(t)

	result, err := archive.NewBuilder(fs).Build(context.Background(), archive.Spec{
		Source:  "www",
		Output:  "release.zip",
		Type:    config.ArchiveZip,
		Exclude: []string{"node_modules/**"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Files)

	data, err := afero.ReadFile(fs, "release.zip")
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents[f.Name] = string(body)
	}
	assert.Equal(t, "#!/usr/bin/env php", contents["bin/console"])
	assert.Equal(t, "log line", contents["var/logs/dev.log"])
	assert.NotContains(t, contents, "node_modules/dep/index.js")
}

func TestBuildSkipsOutputInsideSource(t *testing.T) {
	fs := buildTree(t)

	_, err := archive.NewBuilder(fs).Build(context.Background(), archive.Spec{
		Source: "www",
		Output: "www/release.tar",
		Type:   config.ArchiveTar,
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "www/release.tar")
	require.NoError(t, err)
	assert.NotContains(t, tarEntries(t, data, false), "release.tar")
}

func TestBuildErrors(t *testing.T) {
	fs := buildTree(t)
	builder := archive.NewBuilder(fs)

	t.Run("missing source", func(t *testing.T) {
		_, err := builder.Build(context.Background(), archive.Spec{Source: "nope", Output: "a.tar", Type: config.ArchiveTar})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrArchive))
	})

	t.Run("source is a file", func(t *testing.T) {
		_, err := builder.Build(context.Background(), archive.Spec{Source: "www/index.php", Output: "a.tar", Type: config.ArchiveTar})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrArchive))
	})

	t.Run("unknown type removes the output", func(t *testing.T) {
		_, err := builder.Build(context.Background(), archive.Spec{Source: "www", Output: "a.rar", Type: "rar"})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrArchive))

		exists, _ := afero.Exists(fs, "a.rar")
		assert.False(t, exists)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := builder.Build(ctx, archive.Spec{Source: "www", Output: "b.tar", Type: config.ArchiveTar})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSpecFor(t *testing.T) {
	cfg := &config.DeploymentConfig{
		LocalPath:   "dist",
		ArchiveName: "build.zip",
		ArchiveType: config.ArchiveZip,
		Exclude:     []string{"*.map"},
	}
	assert.Equal(t, archive.Spec{
		Source:  "dist",
		Output:  "build.zip",
		Type:    config.ArchiveZip,
		Exclude: []string{"*.map"},
	}, archive.SpecFor(cfg))
}
