package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"roadmon/internal/models"
)

// FileStore persists the record sequence as a single JSON array on disk.
// Every read reloads the file, so external edits (or corruption) of the
// backing file never leave the process serving stale state. A mutex
// serializes the load-append-trim-rewrite cycle; the rewrite itself goes
// through a temp file and rename so readers see either the old or the new
// sequence, never a torn one.
type FileStore struct {
	path   string
	cap    int
	mu     sync.RWMutex
	logger *log.Logger
}

// NewFileStore creates a FileStore backed by the given path, creating the
// parent directory if needed.
func NewFileStore(path string, retentionCap int, logger *log.Logger) (*FileStore, error) {
	if retentionCap <= 0 {
		return nil, fmt.Errorf("retention cap must be positive, got %d", retentionCap)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory '%s': %w", dir, err)
		}
	}
	return &FileStore{path: path, cap: retentionCap, logger: logger}, nil
}

// Append implements Store.
func (f *FileStore) Append(ctx context.Context, rec models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.load()
	records = append(records, rec)
	if len(records) > f.cap {
		records = records[len(records)-f.cap:]
	}
	return f.write(records)
}

// All implements Store.
func (f *FileStore) All(ctx context.Context) []models.Record {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.load()
}

// ByDevice implements Store.
func (f *FileStore) ByDevice(ctx context.Context, id string) []models.Record {
	return filterByDevice(f.All(ctx), id)
}

// Clear implements Store.
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write([]models.Record{})
}

// Close implements Store. The file store holds no open handles.
func (f *FileStore) Close() error {
	return nil
}

// load reads the backing file. A missing, empty, unreadable or malformed
// file yields an empty sequence; corruption is logged, never surfaced.
func (f *FileStore) load() []models.Record {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Printf("Warning: failed to read data file '%s': %v. Returning empty sequence.", f.path, err)
		}
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		f.logger.Printf("Warning: malformed data file '%s': %v. Returning empty sequence.", f.path, err)
		return nil
	}
	return records
}

// write rewrites the backing file atomically via temp file + rename.
func (f *FileStore) write(records []models.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".road_data-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp data file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace data file '%s': %w", f.path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
