package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Filename is the metadata file name inside the configured directory.
const Filename = "backup_metadata.json"

// ErrCorrupt indicates the metadata file exists but is not valid JSON.
// This aborts a run before any archiving begins.
var ErrCorrupt = errors.New("metadata file is corrupt")

// Store loads and persists the run-timestamp record at a fixed directory.
// The directory comes from configuration; there is no implicit default.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the full path of the metadata file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, Filename)
}

// Load reads the persisted metadata. A missing file yields the zero value;
// an unparsable file yields ErrCorrupt. Load never mutates on-disk state.
func (s *Store) Load() (*Metadata, error) {
	var m Metadata

	jsonFile, err := os.Open(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return &m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open metadata file %q: %w", s.Path(), err)
	}
	defer jsonFile.Close()

	decoder := json.NewDecoder(jsonFile)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrCorrupt, s.Path(), err)
	}
	return &m, nil
}

// Save serializes m and overwrites the metadata file. The write is not
// atomic; a crash mid-write can corrupt the stored record.
func (s *Store) Save(m *Metadata) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create metadata directory %q: %w", s.dir, err)
	}

	jsonFile, err := os.Create(s.Path())
	if err != nil {
		return fmt.Errorf("create metadata file %q: %w", s.Path(), err)
	}
	defer jsonFile.Close()

	encoder := json.NewEncoder(jsonFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode metadata JSON: %w", err)
	}
	return nil
}
