// Package storage persists the full case collection as a single JSON file.
// There is no partial load or incremental write: every operation reads the
// whole array into memory and writes the whole array back.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aesanjagral/caseledger/pkg/models"
)

// Store owns one data file. Lock/Unlock bracket a logical operation
// (load, mutate, save); Busy reports whether such an operation is in
// flight so background jobs can stand aside.
type Store struct {
	path string

	mu     sync.Mutex
	flagMu sync.Mutex
	busy   bool
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Lock marks the start of a logical operation against the store.
func (s *Store) Lock() {
	s.mu.Lock()
	s.flagMu.Lock()
	s.busy = true
	s.flagMu.Unlock()
}

// Unlock marks the end of a logical operation.
func (s *Store) Unlock() {
	s.flagMu.Lock()
	s.busy = false
	s.flagMu.Unlock()
	s.mu.Unlock()
}

// Busy reports whether a logical operation is currently in flight. Advisory
// only: the periodic sync job checks it before pushing the file remotely.
func (s *Store) Busy() bool {
	s.flagMu.Lock()
	defer s.flagMu.Unlock()
	return s.busy
}

// Load reads the whole case collection. A missing file yields an empty
// collection; a malformed file is a hard error for the caller to surface.
func (s *Store) Load() ([]models.CaseRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.CaseRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cases []models.CaseRecord
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", s.path, err)
	}
	return cases, nil
}

// Save writes the whole collection back, preserving record order. The file
// is written to a temporary sibling and renamed into place so a crash
// mid-write never leaves a truncated store behind.
func (s *Store) Save(cases []models.CaseRecord) error {
	data, err := json.MarshalIndent(cases, "", "    ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
