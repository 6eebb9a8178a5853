package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/fsbackup/internal/archive"
	"github.com/kebairia/fsbackup/internal/pathfilter"
	"github.com/kebairia/fsbackup/internal/policy"
	"github.com/kebairia/fsbackup/internal/progress"
)

// Backup executes one run: resolve the destination, load metadata, archive
// every configured root with the configured policy, finalize the archive,
// then record the run. Metadata is persisted only after the archive has
// been finalized, so a failed run never claims a backup that does not
// exist. It returns the path of the written archive.
func (o *Operator) Backup() (string, error) {
	start := time.Now()

	level, err := archive.ParseLevel(o.cfg.Backup.Compression)
	if err != nil {
		return "", err
	}
	polType, err := policy.ParseType(o.cfg.Backup.Type)
	if err != nil {
		return "", err
	}
	pol := policy.ForType(polType)

	outputPath, err := o.resolveOutputPath()
	if err != nil {
		return "", err
	}

	// Metadata problems abort before a single byte is archived.
	meta, err := o.store.Load()
	if err != nil {
		return "", err
	}

	// One wall-clock timestamp shared by every root in this run.
	runTime := time.Now().Unix()
	filter := pathfilter.New(o.cfg.Exclude)

	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("create archive file %q: %w", outputPath, err)
	}

	writer, err := archive.NewWriter(out, level, o.sink)
	if err != nil {
		out.Close()
		o.discardPartial(outputPath)
		return "", err
	}

	o.log.Info("backup started",
		"type", pol.Name(),
		"roots", len(o.cfg.Backup.Roots),
		"output", outputPath,
	)

	for _, root := range o.cfg.Backup.Roots {
		if err := writer.ArchiveRoot(root, filter, pol, meta, runTime); err != nil {
			out.Close()
			o.discardPartial(outputPath)
			return "", fmt.Errorf("archive root %q: %w", root, err)
		}
	}

	if err := writer.Finalize(); err != nil {
		out.Close()
		o.discardPartial(outputPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		o.discardPartial(outputPath)
		return "", fmt.Errorf("close archive file %q: %w", outputPath, err)
	}

	meta.RecordRun(runTime, o.cfg.Backup.Roots)
	if err := o.store.Save(meta); err != nil {
		return "", err
	}

	tally := writer.Tally()
	o.reportFailures(tally)

	summary := progress.Summary{
		Included:         tally.Included,
		ExcludedByFilter: tally.ExcludedByFilter,
		ExcludedByPolicy: tally.ExcludedByPolicy,
		Failed:           tally.Failed(),
		Elapsed:          time.Since(start),
		Output:           outputPath,
	}
	if info, err := os.Stat(outputPath); err == nil {
		summary.ArchiveBytes = info.Size()
	}
	o.sink.Complete(summary)

	return outputPath, nil
}

// resolveOutputPath picks the destination file and makes sure its parent
// directory exists. A relative destination resolves against the working
// directory.
func (o *Operator) resolveOutputPath() (string, error) {
	name := o.cfg.Backup.Output
	if name == "" {
		timestamp := time.Now().Format(o.cfg.Backup.TimestampFormat)
		name = fmt.Sprintf("backup_%s.tar.gz", timestamp)
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(o.cfg.Backup.OutputDirectory, name)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", filepath.Dir(name), err)
	}
	return name, nil
}

// discardPartial removes an archive that never reached finalization.
func (o *Operator) discardPartial(path string) {
	if err := os.Remove(path); err != nil {
		o.log.Warn("could not remove partial archive", "path", path, "error", err.Error())
	}
}

// reportFailures surfaces the skipped-entry count at run end; each entry
// was already warned about when it was skipped.
func (o *Operator) reportFailures(tally archive.Tally) {
	if n := tally.Failed(); n > 0 {
		o.log.Warn("some entries were skipped during the run", "count", n)
	}
}
