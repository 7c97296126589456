package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/set-night/primeminister/internal/domain"
)

// FileStore keeps one JSON array per month in <dir>/YYYY-MM.json.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create log dir: %w", domain.ErrLogging, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(month string) string {
	return filepath.Join(s.dir, month+".json")
}

// Append rewrites the month file with rec added at the end. The new file
// replaces the old one by rename, so readers never see a partial array.
func (s *FileStore) Append(ctx context.Context, rec *domain.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLogging, err)
	}
	entry, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", domain.ErrLogging, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	month := Month(rec)
	entries, err := s.load(month)
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode month %s: %w", domain.ErrLogging, month, err)
	}
	if err := s.writeAtomic(month, data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLogging, err)
	}
	return nil
}

// load returns the raw entries of a month. A missing or empty file is an
// empty month; a corrupt one is an error and is left untouched.
func (s *FileStore) load(month string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(month))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read month %s: %w", domain.ErrLogging, month, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: month %s is not a JSON array: %w", domain.ErrLogging, month, err)
	}
	return entries, nil
}

func (s *FileStore) writeAtomic(month string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+month+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(month)); err != nil {
		return fmt.Errorf("replace month file: %w", err)
	}
	return nil
}

// History walks month files newest first and returns up to limit records,
// most recent first. A non-positive limit returns everything.
func (s *FileStore) History(ctx context.Context, limit int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	months, err := s.months()
	if err != nil {
		return nil, err
	}

	var out []domain.Record
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := s.load(month)
		if err != nil {
			return nil, err
		}
		for i := len(entries) - 1; i >= 0; i-- {
			var rec domain.Record
			if err := json.Unmarshal(entries[i], &rec); err != nil {
				return nil, fmt.Errorf("%w: decode entry in %s: %w", domain.ErrLogging, month, err)
			}
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (s *FileStore) months() ([]string, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list log dir: %w", domain.ErrLogging, err)
	}
	var months []string
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		month := strings.TrimSuffix(name, ".json")
		if !isMonth(month) {
			continue
		}
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}

func isMonth(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	for i, r := range s {
		if i != 4 && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func (s *FileStore) Close() error { return nil }
