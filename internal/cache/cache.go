// Package cache stores fetched documents on disk keyed by their fetch key,
// fronted by a small in-process LRU.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	entrySuffix    = ".json"
	defaultLRUSize = 256
)

// entry is the on-disk representation of one cached document.
type entry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Payload   string    `json:"payload"`
}

// Store is a TTL bounded document cache. Safe for concurrent use; concurrent
// writers of the same key race and the last rename wins.
type Store struct {
	dir   string
	ttl   time.Duration
	now   func() time.Time
	mem   *expirable.LRU[string, entry]
	log   *slog.Logger
	perms fs.FileMode
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for non-fatal cache problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMemorySize sets the capacity of the in-process tier. Zero disables it.
func WithMemorySize(n int) Option {
	return func(s *Store) {
		if n <= 0 {
			s.mem = nil
			return
		}
		s.mem = expirable.NewLRU[string, entry](n, nil, s.ttl)
	}
}

// New creates the cache directory if needed and returns a Store.
func New(dir string, ttl time.Duration, opts ...Option) (*Store, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %q: %w", dir, err)
	}

	s := &Store{
		dir:   dir,
		ttl:   ttl,
		now:   time.Now,
		log:   slog.Default(),
		perms: 0o644,
	}
	s.mem = expirable.NewLRU[string, entry](defaultLRUSize, nil, ttl)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding cache entries.
func (s *Store) Dir() string {
	return s.dir
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached payload for key if a fresh entry exists.
// Missing, unreadable, malformed and expired entries all report a miss.
func (s *Store) Get(key string) (string, bool) {
	name := s.hash(key)

	if s.mem != nil {
		if e, ok := s.mem.Get(name); ok {
			if s.fresh(e) {
				return e.Payload, true
			}
			s.mem.Remove(name)
		}
	}

	e, err := s.read(filepath.Join(s.dir, name+entrySuffix))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("cache entry unreadable", "key", key, "error", err)
		}
		return "", false
	}
	if !s.fresh(e) {
		return "", false
	}

	if s.mem != nil {
		s.mem.Add(name, e)
	}
	return e.Payload, true
}

// Put stores payload under key, replacing any previous entry.
func (s *Store) Put(key, payload string) error {
	name := s.hash(key)
	e := entry{FetchedAt: s.now().UTC(), Payload: payload}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.writeAtomic(filepath.Join(s.dir, name+entrySuffix), data); err != nil {
		return err
	}

	if s.mem != nil {
		s.mem.Add(name, e)
	}
	return nil
}

// Purge deletes expired and malformed entries and returns how many were removed.
func (s *Store) Purge() (int, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	for _, it := range items {
		if it.IsDir() || !strings.HasSuffix(it.Name(), entrySuffix) {
			continue
		}
		path := filepath.Join(s.dir, it.Name())
		e, err := s.read(path)
		if err == nil && s.fresh(e) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", it.Name(), err)
		}
		if s.mem != nil {
			s.mem.Remove(strings.TrimSuffix(it.Name(), entrySuffix))
		}
		removed++
	}
	return removed, nil
}

func (s *Store) fresh(e entry) bool {
	if e.FetchedAt.IsZero() {
		return false
	}
	return s.now().Sub(e.FetchedAt) < s.ttl
}

func (s *Store) read(path string) (entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return e, nil
}

// writeAtomic writes through a temp file in the same directory so readers
// never observe a partially written entry.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp entry: %w", err)
	}
	if err := os.Chmod(tmpName, s.perms); err != nil {
		return fmt.Errorf("chmod temp entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename cache entry: %w", err)
	}
	return nil
}

// hash maps a fetch key to its entry name. URL keys are normalized first so
// trivially different spellings share one entry.
func (s *Store) hash(key string) string {
	normalized := key
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		if n, err := purell.NormalizeURLString(key, purell.FlagsSafe); err == nil {
			normalized = n
		}
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
