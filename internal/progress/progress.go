// Package progress carries advisory run events to an external sink. The
// sink never blocks the pipeline and never influences its decisions.
package progress

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kebairia/fsbackup/internal/logger"
)

// Summary describes a completed run.
type Summary struct {
	Included         int
	ExcludedByFilter int
	ExcludedByPolicy int
	Failed           int
	Elapsed          time.Duration
	Output           string
	ArchiveBytes     int64
}

// Sink receives discrete progress events during a run.
type Sink interface {
	// Status reports a coarse phase change, e.g. a new root being walked.
	Status(msg string)
	// Entry reports one archived entry.
	Entry(path string)
	// Complete reports the final run summary.
	Complete(s Summary)
}

// logSink forwards events to the structured logger.
type logSink struct {
	log logger.Logger
}

// NewLogSink returns a Sink that reports through log.
func NewLogSink(log logger.Logger) Sink {
	return &logSink{log: log}
}

func (s *logSink) Status(msg string) {
	s.log.Info(msg)
}

func (s *logSink) Entry(path string) {
	s.log.Debug("archived", "path", path)
}

func (s *logSink) Complete(sum Summary) {
	s.log.Info("backup completed",
		"included", sum.Included,
		"excluded_by_filter", sum.ExcludedByFilter,
		"excluded_by_policy", sum.ExcludedByPolicy,
		"failed", sum.Failed,
		"duration", sum.Elapsed.String(),
		"size", humanize.Bytes(uint64(sum.ArchiveBytes)),
		"output", sum.Output,
	)
}

// nopSink discards every event.
type nopSink struct{}

// Discard is a Sink that drops all events, for tests and library callers.
var Discard Sink = nopSink{}

func (nopSink) Status(string)    {}
func (nopSink) Entry(string)     {}
func (nopSink) Complete(Summary) {}
