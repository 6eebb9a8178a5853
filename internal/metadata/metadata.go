package metadata

// Metadata is the persisted record of prior backup runs. All fields are
// optional on disk; a missing file is equivalent to the zero value.
type Metadata struct {
	// LastBackupTime is the epoch-seconds timestamp of the most recent
	// successful run.
	LastBackupTime *int64 `json:"last_backup_time,omitempty"`
	// OriginalBackupTime is the timestamp of the very first successful run.
	// Once set it is never reassigned.
	OriginalBackupTime *int64 `json:"original_backup_time,omitempty"`
	// BackupHistory records the run timestamp per backed-up root. It is
	// written through on every run but never consulted by selection.
	BackupHistory map[string]int64 `json:"backup_history"`
}

// LastReference returns the incremental reference timestamp, 0 when no
// run has completed yet.
func (m *Metadata) LastReference() int64 {
	if m.LastBackupTime == nil {
		return 0
	}
	return *m.LastBackupTime
}

// OriginalReference returns the differential reference timestamp, 0 when
// no run has completed yet.
func (m *Metadata) OriginalReference() int64 {
	if m.OriginalBackupTime == nil {
		return 0
	}
	return *m.OriginalBackupTime
}

// RecordRun folds a finalized run into the record. OriginalBackupTime is
// set only on the first run ever; LastBackupTime is overwritten every run.
func (m *Metadata) RecordRun(timestamp int64, roots []string) {
	ts := timestamp
	m.LastBackupTime = &ts
	if m.OriginalBackupTime == nil {
		orig := timestamp
		m.OriginalBackupTime = &orig
	}
	if m.BackupHistory == nil {
		m.BackupHistory = make(map[string]int64, len(roots))
	}
	for _, root := range roots {
		m.BackupHistory[root] = timestamp
	}
}
