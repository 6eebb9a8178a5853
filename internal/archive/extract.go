package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/kebairia/fsbackup/internal/logger"
)

// ErrUnsafeEntry indicates an archive entry whose name would escape the
// restore target.
var ErrUnsafeEntry = errors.New("archive entry escapes target directory")

// Extract streams a tar+gzip archive from src into targetDir, recreating
// directories, file contents and file modes. Entry names are root-relative;
// anything resolving outside targetDir aborts the restore. It returns the
// number of entries restored.
func Extract(src io.Reader, targetDir string) (int, error) {
	log := logger.Global()

	gz, err := gzip.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	restored := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return restored, nil
		}
		if err != nil {
			return restored, fmt.Errorf("read archive record: %w", err)
		}

		dest, err := safeJoin(targetDir, hdr.Name)
		if err != nil {
			return restored, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, hdr.FileInfo().Mode().Perm()); err != nil {
				return restored, fmt.Errorf("create directory %q: %w", dest, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return restored, fmt.Errorf("create parent of %q: %w", dest, err)
			}
			if err := writeFileFrom(tr, dest, hdr.FileInfo().Mode().Perm()); err != nil {
				return restored, err
			}
		default:
			log.Debug("skipping unsupported record type",
				"name", hdr.Name,
				"type", hdr.Typeflag,
			)
			continue
		}
		restored++
	}
}

func writeFileFrom(r io.Reader, dest string, mode os.FileMode) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %q: %w", dest, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write file %q: %w", dest, err)
	}
	return f.Close()
}

// safeJoin resolves an archive entry name under target, rejecting names
// that climb out of it.
func safeJoin(target, name string) (string, error) {
	dest := filepath.Join(target, filepath.FromSlash(name))
	cleanTarget := filepath.Clean(target)
	if dest != cleanTarget && !strings.HasPrefix(dest, cleanTarget+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntry, name)
	}
	return dest, nil
}
