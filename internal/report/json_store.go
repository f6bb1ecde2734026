package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONStore keeps all reports in one JSON array file. Appends rewrite the
// whole file under a lock and replace it atomically; reads take no lock and
// may miss an append in flight.
type JSONStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewJSONStore creates the parent directory and an empty array file when
// path does not exist yet.
func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create store dir: %w", ErrPersistence, err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]\n"), 0644); err != nil {
			return nil, fmt.Errorf("%w: init store: %w", ErrPersistence, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat store: %w", ErrPersistence, err)
	}
	return &JSONStore{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// Append adds r to the store.
func (s *JSONStore) Append(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := prepare(r, s.now)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}
	records = append(records, r)
	return s.writeAll(records)
}

// Query returns the stored reports for which keep returns true.
func (s *JSONStore) Query(ctx context.Context, keep func(Report) bool) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if keep == nil {
		return records, nil
	}
	out := records[:0]
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close is a no-op; the file is not held open.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) readAll() ([]Report, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []Report
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrPersistence, s.path, err)
	}
	return records, nil
}

func (s *JSONStore) writeAll(records []Report) error {
	if records == nil {
		records = []Report{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode reports: %w", ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %w", ErrPersistence, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write temp: %w", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync temp: %w", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %w", ErrPersistence, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("%w: chmod temp: %w", ErrPersistence, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrPersistence, s.path, err)
	}
	return nil
}
