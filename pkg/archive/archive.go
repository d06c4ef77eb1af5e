package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Spec describes one archive to build.
type Spec struct {
	// Source is the directory whose content is packaged. Entries are
	// stored relative to it.
	Source string
	// Output is the archive file to write.
	Output  string
	Type    config.ArchiveType
	Gzip    bool
	Exclude []string
}

// SpecFor returns the archive spec of a resolved configuration.
func SpecFor(cfg *config.DeploymentConfig) Spec {
	return Spec{
		Source:  cfg.LocalPath,
		Output:  cfg.ArchiveName,
		Type:    cfg.ArchiveType,
		Gzip:    cfg.Gzip,
		Exclude: cfg.Exclude,
	}
}

// Result summarizes a built archive.
type Result struct {
	Path  string
	Files int
	Bytes int64
}

// Builder writes archives to a filesystem.
type Builder struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewBuilder returns a builder over fs. A nil fs is the OS filesystem.
func NewBuilder(fs afero.Fs) *Builder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Builder{fs: fs, logger: logging.GetLogger("archive")}
}

type entryWriter interface {
	add(rel string, info os.FileInfo, link string, body io.Reader) error
	Close() error
}

// Build packages spec.Source into spec.Output. A partially written
// archive is removed on failure.
func (b *Builder) Build(ctx context.Context, spec Spec) (*Result, error) {
	info, err := b.fs.Stat(spec.Source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchive, "cannot read local path %s", spec.Source)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrArchive, "local path %s is not a directory", spec.Source)
	}
	if spec.Output == "" {
		return nil, errors.New(errors.ErrArchive, "archive name is empty")
	}

	out, err := b.fs.Create(spec.Output)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchive, "cannot create archive %s", spec.Output)
	}

	result, err := b.write(ctx, spec, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = errors.Wrapf(closeErr, errors.ErrArchive, "cannot write archive %s", spec.Output)
	}
	if err != nil {
		_ = b.fs.Remove(spec.Output)
		return nil, err
	}

	if st, statErr := b.fs.Stat(spec.Output); statErr == nil {
		result.Bytes = st.Size()
	}
	b.logger.Info().
		Str("archive", result.Path).
		Int("files", result.Files).
		Int64("bytes", result.Bytes).
		Msg("Archive built")
	return result, nil
}

func (b *Builder) write(ctx context.Context, spec Spec, out io.Writer) (*Result, error) {
	var w entryWriter
	switch spec.Type {
	case config.ArchiveZip:
		w = &zipWriter{zw: zip.NewWriter(out)}
	case config.ArchiveTar:
		w = newTarWriter(out, spec.Gzip)
	default:
		return nil, errors.Newf(errors.ErrArchive, "unsupported archive type %q", spec.Type)
	}

	result := &Result{Path: spec.Output}
	outputAbs := b.abs(spec.Output)

	err := afero.Walk(b.fs, spec.Source, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(spec.Source, p)
		if err != nil {
			return err
		}
		if rel == "." || b.abs(p) == outputAbs {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if Excluded(spec.Exclude, rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			reader, ok := b.fs.(afero.LinkReader)
			if !ok {
				return nil
			}
			if link, err = reader.ReadlinkIfPossible(p); err != nil {
				return err
			}
		}

		if !info.Mode().IsRegular() {
			return w.add(rel, info, link, nil)
		}

		f, err := b.fs.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		result.Files++
		return w.add(rel, info, link, f)
	})
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchive, "cannot package %s", spec.Source)
	}
	return result, nil
}

func (b *Builder) abs(p string) string {
	if _, ok := b.fs.(*afero.OsFs); ok {
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
	}
	return filepath.Clean(p)
}

type tarWriter struct {
	tw *tar.Writer
	gz *gzip.Writer
}

func newTarWriter(out io.Writer, compress bool) *tarWriter {
	w := &tarWriter{}
	if compress {
		w.gz = gzip.NewWriter(out)
		out = w.gz
	}
	w.tw = tar.NewWriter(out)
	return w
}

func (w *tarWriter) add(rel string, info os.FileInfo, link string, body io.Reader) error {
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = rel
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	if body != nil {
		_, err = io.Copy(w.tw, body)
	}
	return err
}

func (w *tarWriter) Close() error {
	err := w.tw.Close()
	if w.gz != nil {
		if gzErr := w.gz.Close(); err == nil {
			err = gzErr
		}
	}
	return err
}

type zipWriter struct {
	zw *zip.Writer
}

func (w *zipWriter) add(rel string, info os.FileInfo, link string, body io.Reader) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = rel
	switch {
	case info.IsDir():
		hdr.Name += "/"
		hdr.Method = zip.Store
	default:
		hdr.Method = zip.Deflate
	}
	entry, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	switch {
	case link != "":
		_, err = io.WriteString(entry, link)
	case body != nil:
		_, err = io.Copy(entry, body)
	}
	return err
}

func (w *zipWriter) Close() error {
	return w.zw.Close()
}
