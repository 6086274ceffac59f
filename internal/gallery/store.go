// Package gallery holds the deduplicated image collection and its JSON file
// persistence. The store is the single source of truth for "have we already
// recorded this file_id", shared by live webhook ingestion and backfill.
package gallery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Gautam-813/gauravphotoviewer/internal/models"
)

// Store is an ordered, append-only collection of ImageRecords keyed by
// file_id. Insertion order is discovery order. One mutex guards the
// membership check, the append and the flush together so a concurrent
// webhook delivery and backfill commit cannot produce duplicate file_ids.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger

	records []models.ImageRecord
	index   map[string]struct{}
}

// New creates an empty store persisting to path. Call Load before serving.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger,
		index:  make(map[string]struct{}),
	}
}

// Load reads the persisted collection from disk and returns the number of
// records loaded. A missing or unreadable or malformed file degrades to an
// empty store with a logged warning; Load never fails startup.
func (s *Store) Load() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no gallery file yet, starting empty", "path", s.path)
		} else {
			s.logger.Warn("failed to read gallery file, starting empty", "path", s.path, "error", err)
		}
		return 0
	}

	var records []models.ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("gallery file is corrupt, starting empty", "path", s.path, "error", err)
		return 0
	}

	s.records = s.records[:0]
	clear(s.index)
	dropped := 0
	for _, rec := range records {
		if _, ok := s.index[rec.FileID]; ok {
			dropped++
			continue
		}
		s.records = append(s.records, rec)
		s.index[rec.FileID] = struct{}{}
	}
	if dropped > 0 {
		s.logger.Warn("dropped duplicate file_ids while loading gallery", "dropped", dropped)
	}
	return len(s.records)
}

// Exists reports whether a record with the given file_id is already stored.
func (s *Store) Exists(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[fileID]
	return ok
}

// Insert appends one record and flushes the whole collection to disk.
// It returns inserted=false when the file_id is already present (the record
// is skipped, nothing is written). A flush failure is returned but the
// in-memory insert is not rolled back; the caller logs it and the next
// successful flush repairs the file.
func (s *Store) Insert(rec models.ImageRecord) (inserted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[rec.FileID]; ok {
		return false, nil
	}
	s.records = append(s.records, rec)
	s.index[rec.FileID] = struct{}{}
	return true, s.flushLocked()
}

// InsertBatch appends every record whose file_id is not yet present, then
// flushes once for the whole batch. Used by backfill commit; live ingestion
// uses Insert for per-record durability.
func (s *Store) InsertBatch(recs []models.ImageRecord) (added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range recs {
		if _, ok := s.index[rec.FileID]; ok {
			continue
		}
		s.records = append(s.records, rec)
		s.index[rec.FileID] = struct{}{}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.flushLocked()
}

// Flush writes the current collection to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked serializes the full ordered collection to a temp file in the
// same directory and renames it over the store file, so a crash mid-write
// cannot truncate the previous good file.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode gallery: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gallery-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp gallery file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write gallery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close gallery file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace gallery file: %w", err)
	}
	return nil
}

// List returns a copy of the ordered collection for read-only presentation.
func (s *Store) List() []models.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ImageRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
