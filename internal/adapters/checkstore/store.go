// Package checkstore persists the check-value store: the last-probed value
// recorded for each user-defined check, surviving across runs so a check
// node's staleness decision is stable between invocations.
//
// Grounded on the teacher's flat-map JSON store style (a single file guarded
// by a sync.RWMutex) combined with the write-temp-then-rename discipline
// from its atomicWriteFile helper, so a crash mid-write never corrupts the
// store.
package checkstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/pyprod/internal/core/ports"
	"go.trai.ch/zerr"
)

const filePerm = 0o644
const dirPerm = 0o755

// Store implements ports.CheckStore as a single flat JSON file.
type Store struct {
	path string

	mu      sync.RWMutex
	entries map[string]record
	dirty   bool
}

type record struct {
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Load reads the check-value store from path, tolerating a missing or
// corrupt file by starting empty rather than failing the build.
func Load(path string) (*Store, error) {
	s := &Store{path: path, entries: map[string]record{}}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied configuration
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, nil
	}

	var entries map[string]record
	if err := json.Unmarshal(data, &entries); err != nil {
		return s, nil
	}
	s.entries = entries
	return s, nil
}

// Get returns the entry last recorded for resource, and whether one exists.
func (s *Store) Get(resource string) (ports.CheckEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.entries[resource]
	if !ok {
		return ports.CheckEntry{}, false
	}
	return ports.CheckEntry{Value: r.Value, Timestamp: r.Timestamp}, true
}

// Set records entry for resource, overwriting any previous value.
func (s *Store) Set(resource string, entry ports.CheckEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[resource] = record{Value: entry.Value, Timestamp: entry.Timestamp}
	s.dirty = true
}

// Flush persists the current contents to path if anything changed since the
// last Flush, via a write-temp-then-rename so a crash mid-write leaves the
// previous contents intact.
func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "marshal check store failed")
	}

	if err := s.atomicWrite(data); err != nil {
		return zerr.Wrap(err, "write check store failed")
	}
	s.dirty = false
	return nil
}

func (s *Store) atomicWrite(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "checkstore-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
