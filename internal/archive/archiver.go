// Package archive streams selected filesystem entries into a compressed
// tar archive and decodes such archives back onto disk.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/kebairia/fsbackup/internal/logger"
	"github.com/kebairia/fsbackup/internal/metadata"
	"github.com/kebairia/fsbackup/internal/pathfilter"
	"github.com/kebairia/fsbackup/internal/policy"
	"github.com/kebairia/fsbackup/internal/progress"
)

// ErrFinalize indicates the archive trailer could not be written; the
// output is not a valid container.
var ErrFinalize = errors.New("archive finalize failed")

// ParseLevel maps a configured compression level name to its gzip level.
func ParseLevel(name string) (int, error) {
	switch name {
	case "fast":
		return gzip.BestSpeed, nil
	case "default":
		return gzip.DefaultCompression, nil
	case "best":
		return gzip.BestCompression, nil
	}
	return 0, fmt.Errorf("unknown compression level %q", name)
}

// Writer streams entries into one tar+gzip archive. The archive is not a
// valid container until Finalize succeeds.
type Writer struct {
	gz   *gzip.Writer
	tw   *tar.Writer
	sink progress.Sink
	log  logger.Logger

	tally Tally
}

// NewWriter wraps w in gzip (at the given level) and tar layers.
func NewWriter(w io.Writer, level int, sink progress.Sink) (*Writer, error) {
	gz, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if sink == nil {
		sink = progress.Discard
	}
	return &Writer{
		gz:   gz,
		tw:   tar.NewWriter(gz),
		sink: sink,
		log:  logger.Global(),
	}, nil
}

// ArchiveRoot walks root depth-first and writes every entry that survives
// the filter and the policy. Entry-level problems are recorded in the
// tally and skipped; only archive-stream write failures return an error.
// A missing root is warned about and skipped entirely.
func (a *Writer) ArchiveRoot(
	root string,
	filter *pathfilter.Filter,
	pol policy.Policy,
	meta *metadata.Metadata,
	runTime int64,
) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", root, err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		a.log.Warn("skipping missing backup root", "root", root, "error", err.Error())
		return nil
	}

	a.sink.Status(fmt.Sprintf("archiving %s (%s)", absRoot, pol.Name()))

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			a.fail(path, walkErr)
			return nil
		}
		if filter.Excludes(path) {
			a.tally.ExcludedByFilter++
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			a.fail(path, err)
			return nil
		}

		depth := entryDepth(absRoot, path)
		if d.IsDir() && depth == 0 {
			// The walk root itself never produces a record.
			return nil
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			// Sockets, devices and symlinks are not archived.
			a.log.Debug("ignoring irregular entry", "path", path)
			return nil
		}

		entry := policy.Entry{
			Path:    path,
			IsDir:   d.IsDir(),
			Depth:   depth,
			ModTime: info.ModTime(),
		}
		if d.IsDir() {
			entry.BirthTime, entry.HasBirthTime = birthTime(path)
		}

		include, err := pol.Includes(entry, meta, runTime)
		if err != nil {
			a.fail(path, err)
			return nil
		}
		if !include {
			a.tally.ExcludedByPolicy++
			return nil
		}

		if d.IsDir() {
			return a.writeDir(path, info)
		}
		return a.writeFile(path, info)
	})
}

// writeDir emits an empty structural record for one directory.
func (a *Writer) writeDir(path string, info os.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		a.fail(path, err)
		return nil
	}
	hdr.Name = archiveName(path) + "/"
	if err := a.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write directory record %q: %w", path, err)
	}
	a.tally.Included++
	a.sink.Entry(path)
	return nil
}

// writeFile emits a full-content record for one regular file. A file that
// cannot be opened is skipped; a failure on the archive stream itself is
// fatal.
func (a *Writer) writeFile(path string, info os.FileInfo) error {
	f, err := os.Open(path)
	if err != nil {
		a.log.Warn("could not open file", "path", path, "error", err.Error())
		a.tally.Failures = append(a.tally.Failures, Failure{Path: path, Reason: err.Error()})
		return nil
	}
	defer f.Close()

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		a.fail(path, err)
		return nil
	}
	hdr.Name = archiveName(path)
	if err := a.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write file record %q: %w", path, err)
	}
	if _, err := io.Copy(a.tw, f); err != nil {
		return fmt.Errorf("stream file %q into archive: %w", path, err)
	}
	a.tally.Included++
	a.sink.Entry(path)
	return nil
}

// Finalize writes the tar trailer and flushes the compressed stream. Until
// it succeeds the output is not a readable archive.
func (a *Writer) Finalize() error {
	if err := a.tw.Close(); err != nil {
		return fmt.Errorf("%w: close tar stream: %v", ErrFinalize, err)
	}
	if err := a.gz.Close(); err != nil {
		return fmt.Errorf("%w: close gzip stream: %v", ErrFinalize, err)
	}
	return nil
}

// Tally returns the per-entry outcome counts accumulated so far.
func (a *Writer) Tally() Tally {
	return a.tally
}

func (a *Writer) fail(path string, err error) {
	a.log.Warn("skipping entry", "path", path, "error", err.Error())
	a.tally.Failures = append(a.tally.Failures, Failure{Path: path, Reason: err.Error()})
}

// archiveName is the in-archive path: the absolute path with the leading
// separator removed, so restoring into any target directory reproduces
// the original layout.
func archiveName(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "/")
}

// entryDepth counts path segments between the walk root and the entry.
func entryDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
