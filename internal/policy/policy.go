// Package policy decides, per filesystem entry, whether it belongs in the
// current run's archive.
package policy

import (
	"errors"
	"fmt"
	"time"

	"github.com/kebairia/fsbackup/internal/metadata"
)

// ErrNoBirthTime indicates a directory's creation time could not be read,
// either because the platform or filesystem does not record it or because
// the stat failed.
var ErrNoBirthTime = errors.New("creation time unavailable")

// Entry is one filesystem node produced by traversal. It is transient and
// never persisted.
type Entry struct {
	// Path is the absolute path of the entry.
	Path string
	// IsDir distinguishes directory records from file records.
	IsDir bool
	// Depth is the number of path segments below the walk root.
	Depth int
	// ModTime is the entry's last-modified time.
	ModTime time.Time
	// BirthTime is the entry's creation time; valid only when
	// HasBirthTime is true.
	BirthTime    time.Time
	HasBirthTime bool
}

// Policy is one of the three selection strategies. Includes reports
// whether the entry belongs in this run's archive; a non-nil error means
// the timestamps required for the decision could not be read and the
// entry must be skipped, not that the run should abort.
type Policy interface {
	Name() string
	Includes(e Entry, meta *metadata.Metadata, runTime int64) (bool, error)
}

// Type enumerates the selection strategies.
type Type uint8

const (
	// TypeFull includes every entry that survives filtering.
	TypeFull Type = iota
	// TypeIncremental includes entries changed since the most recent run.
	TypeIncremental
	// TypeDifferential includes entries changed since the first run ever.
	TypeDifferential
)

// ParseType maps the configured strategy name to its Type.
func ParseType(name string) (Type, error) {
	switch name {
	case "full":
		return TypeFull, nil
	case "incremental":
		return TypeIncremental, nil
	case "differential":
		return TypeDifferential, nil
	}
	return TypeFull, fmt.Errorf("unknown backup type %q", name)
}

// ForType returns the Policy implementing t.
func ForType(t Type) Policy {
	switch t {
	case TypeIncremental:
		return Incremental{}
	case TypeDifferential:
		return Differential{}
	}
	return Full{}
}

// Full selects every entry unconditionally.
type Full struct{}

func (Full) Name() string { return "full" }

func (Full) Includes(Entry, *metadata.Metadata, int64) (bool, error) {
	return true, nil
}

// Incremental selects entries changed since the most recent run. Files
// are judged by modification time, directories by creation time; a
// directory's decision only controls whether its own (possibly empty)
// record is emitted, never the files beneath it.
type Incremental struct{}

func (Incremental) Name() string { return "incremental" }

func (Incremental) Includes(e Entry, meta *metadata.Metadata, _ int64) (bool, error) {
	return changedSince(e, meta.LastReference())
}

// Differential selects entries changed since the very first run, using
// the same per-entry rule as Incremental against the original reference.
type Differential struct{}

func (Differential) Name() string { return "differential" }

func (Differential) Includes(e Entry, meta *metadata.Metadata, _ int64) (bool, error) {
	return changedSince(e, meta.OriginalReference())
}

// changedSince applies the strict greater-than rule. An entry whose
// timestamp equals the reference exactly is not selected.
func changedSince(e Entry, reference int64) (bool, error) {
	if e.IsDir {
		if !e.HasBirthTime {
			return false, fmt.Errorf("%w: %s", ErrNoBirthTime, e.Path)
		}
		return e.BirthTime.Unix() > reference, nil
	}
	return e.ModTime.Unix() > reference, nil
}
