package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/term-dates/internal/term"
)

const (
	DefaultPath = "cache/term-dates.json"
	tmpSuffix   = ".tmp"
)

// rename is swapped out by tests to simulate a crash before the commit
var rename = os.Rename

// Store is the in-memory mirror of the cache file. It is safe for concurrent readers
// alongside a single writer.
type Store struct {
	path string
	now  func() time.Time

	// flushMu orders writers so the file always matches the latest mutation;
	// readers only ever take mu
	flushMu sync.Mutex
	mu      sync.RWMutex
	years   map[int]term.YearData
	meta    Meta
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used to stamp refresh times
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads the cache file at path, creating it with an empty record if it does not
// exist. A file that fails validation yields a *CorruptError.
func Open(path string, opts ...Option) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	s := &Store{
		path:  path,
		now:   time.Now,
		years: make(map[int]term.YearData),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading cache file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}

	years, meta, err := decodeRecord(raw)
	if err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	s.years = years
	s.meta = meta
	return s, nil
}

// Path returns the location of the cache file
func (s *Store) Path() string {
	return s.path
}

// GetYear returns a copy of the cached data for a year
func (s *Store) GetYear(year int) (term.YearData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	yd, ok := s.years[year]
	if !ok {
		return term.YearData{}, false
	}
	return yd.Clone(), true
}

// Years returns the cached years in ascending order
func (s *Store) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make([]int, 0, len(s.years))
	for y := range s.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// SetYear stores a year's data and flushes the record. On a *FlushError the in-memory
// update is kept.
func (s *Store) SetYear(year int, data term.YearData) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	s.years[year] = data.Clone()
	s.mu.Unlock()

	return s.flush()
}

// SetRefreshStatus records the outcome of a refresh run, stamps it with the current
// time and flushes the record
func (s *Store) SetRefreshStatus(ok bool) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	now := s.now().UTC()
	s.mu.Lock()
	s.meta = Meta{LastRefreshOk: ok, LastRefreshAt: &now}
	s.mu.Unlock()

	return s.flush()
}

// Health returns the refresh metadata
func (s *Store) Health() Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta := s.meta
	if meta.LastRefreshAt != nil {
		at := *meta.LastRefreshAt
		meta.LastRefreshAt = &at
	}
	return meta
}

// Status returns the health flags as of now
func (s *Store) Status(now time.Time) HealthStatus {
	return NewHealthStatus(s.Health(), now)
}

// flush writes the full record to a temp file and renames it over the cache file.
// Callers hold flushMu.
func (s *Store) flush() error {
	s.mu.RLock()
	data, err := encodeRecord(s.years, s.meta)
	s.mu.RUnlock()
	if err != nil {
		return &FlushError{Path: s.path, Err: err}
	}

	if err := writeAtomic(s.path, data); err != nil {
		return &FlushError{Path: s.path, Err: err}
	}
	return nil
}

// writeAtomic replaces path with data via a synced temp file and a rename
func writeAtomic(path string, data []byte) error {
	tmp := path + tmpSuffix

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := rename(tmp, path); err != nil {
		os.Remove(tmp) // Clean up temp file
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
