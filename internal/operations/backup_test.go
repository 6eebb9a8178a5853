package operations

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/fsbackup/internal/config"
	"github.com/kebairia/fsbackup/internal/metadata"
	"github.com/kebairia/fsbackup/internal/progress"
)

func testConfig(t *testing.T, root, backupType string) config.Config {
	t.Helper()
	base := t.TempDir()
	return config.Config{
		Backup: config.BackupConfig{
			Roots:           []string{root},
			Type:            backupType,
			Compression:     "fast",
			OutputDirectory: filepath.Join(base, "out"),
			TimestampFormat: config.DefaultTimestampFormat,
		},
		Metadata: config.MetadataConfig{
			Directory: filepath.Join(base, "meta"),
		},
	}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func listEntries(t *testing.T, archivePath string) []string {
	t.Helper()
	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		_, err = io.Copy(io.Discard, tr)
		require.NoError(t, err)
	}
	sort.Strings(names)
	return names
}

func runBackup(t *testing.T, cfg config.Config) string {
	t.Helper()
	op, err := NewOperator(cfg, WithSink(progress.Discard))
	require.NoError(t, err)
	out, err := op.Backup()
	require.NoError(t, err)
	return out
}

func TestBackup_FirstIncrementalRunDegeneratesToFull(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "a", "b.txt": "b", "c.txt": "c",
	})
	cfg := testConfig(t, root, "incremental")

	out := runBackup(t, cfg)

	names := listEntries(t, out)
	require.Len(t, names, 3, "first-ever run must include every file")

	// Both timestamps now carry the run's single timestamp.
	meta, err := metadata.NewStore(cfg.Metadata.Directory).Load()
	require.NoError(t, err)
	require.NotNil(t, meta.LastBackupTime)
	require.NotNil(t, meta.OriginalBackupTime)
	assert.Equal(t, *meta.LastBackupTime, *meta.OriginalBackupTime)
	assert.EqualValues(t, *meta.LastBackupTime, meta.BackupHistory[root])
}

func TestBackup_OriginalTimestampSurvivesLaterRuns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a"})
	cfg := testConfig(t, root, "full")

	runBackup(t, cfg)
	store := metadata.NewStore(cfg.Metadata.Directory)
	first, err := store.Load()
	require.NoError(t, err)
	original := *first.OriginalBackupTime

	// A later run under a different policy must not move the original.
	cfg.Backup.Type = "differential"
	runBackup(t, cfg)

	second, err := store.Load()
	require.NoError(t, err)
	assert.EqualValues(t, original, *second.OriginalBackupTime)
}

func TestBackup_DifferentialSelectionIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "a", "sub/b.txt": "b",
	})
	cfg := testConfig(t, root, "differential")

	// Seed an original reference in the past so both runs compare against
	// the same fixed timestamp.
	store := metadata.NewStore(cfg.Metadata.Directory)
	var seed metadata.Metadata
	seed.RecordRun(100, []string{root})
	require.NoError(t, store.Save(&seed))

	cfg.Backup.Output = "first.tar.gz"
	first := runBackup(t, cfg)
	cfg.Backup.Output = "second.tar.gz"
	second := runBackup(t, cfg)

	assert.Equal(t, listEntries(t, first), listEntries(t, second),
		"two differential runs over an unchanged tree must select the same set")
}

func TestBackup_FatalFailureLeavesMetadataUntouched(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a"})
	cfg := testConfig(t, root, "full")

	// Destination resolves to an existing directory: creating the archive
	// file fails before anything is written.
	blocked := filepath.Join(t.TempDir(), "blocked.tar.gz")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	cfg.Backup.Output = blocked

	op, err := NewOperator(cfg, WithSink(progress.Discard))
	require.NoError(t, err)
	_, err = op.Backup()
	require.Error(t, err)

	store := metadata.NewStore(cfg.Metadata.Directory)
	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "failed run must not persist metadata")
}

func TestBackup_CorruptMetadataAbortsBeforeArchiving(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a"})
	cfg := testConfig(t, root, "full")

	store := metadata.NewStore(cfg.Metadata.Directory)
	require.NoError(t, os.MkdirAll(cfg.Metadata.Directory, 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0o644))
	cfg.Backup.Output = "never.tar.gz"

	op, err := NewOperator(cfg, WithSink(progress.Discard))
	require.NoError(t, err)
	_, err = op.Backup()
	require.ErrorIs(t, err, metadata.ErrCorrupt)

	_, statErr := os.Stat(filepath.Join(cfg.Backup.OutputDirectory, "never.tar.gz"))
	assert.True(t, os.IsNotExist(statErr), "no archive bytes may be written after a corrupt load")
}

func TestRestore_ReproducesBackedUpTree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"etc/app.conf":  "key=value",
		"data/blob.bin": "payload",
	}
	writeFiles(t, root, files)
	cfg := testConfig(t, root, "full")

	out := runBackup(t, cfg)

	target := t.TempDir()
	require.NoError(t, Restore(out, target))

	for rel, content := range files {
		got, err := os.ReadFile(filepath.Join(target, root, rel))
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
	}
}

func TestRestore_MissingArchive(t *testing.T) {
	err := Restore(filepath.Join(t.TempDir(), "nope.tar.gz"), t.TempDir())
	require.Error(t, err)
}
