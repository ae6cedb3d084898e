package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	s, err := New(t.TempDir(), 24*time.Hour, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return s, clock
}

func TestPutThenGet(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Put("https://www.bergfex.com/zermatt/", "<html>zermatt</html>"))

	got, ok := s.Get("https://www.bergfex.com/zermatt/")
	require.True(t, ok)
	assert.Equal(t, "<html>zermatt</html>", got)
}

func TestGetMissingKey(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.Get("https://www.bergfex.com/nowhere/")
	assert.False(t, ok)
}

func TestEntryExpiresAtTTL(t *testing.T) {
	for _, size := range []int{0, 16} {
		s, clock := newTestStore(t, WithMemorySize(size))
		require.NoError(t, s.Put("k", "v"))

		clock.Advance(23*time.Hour + 59*time.Minute)
		_, ok := s.Get("k")
		assert.True(t, ok, "memory size %d: entry should still be fresh", size)

		clock.Advance(time.Minute)
		_, ok = s.Get("k")
		assert.False(t, ok, "memory size %d: entry should expire exactly at ttl", size)
	}
}

func TestPutOverwrites(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.Put("k", "first"))
	clock.Advance(20 * time.Hour)
	require.NoError(t, s.Put("k", "second"))
	clock.Advance(20 * time.Hour)

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestMalformedEntryIsMiss(t *testing.T) {
	s, _ := newTestStore(t, WithMemorySize(0))
	path := filepath.Join(s.Dir(), s.hash("k")+entrySuffix)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, ok := s.Get("k")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(`{"payload":"x"}`), 0o644))
	_, ok = s.Get("k")
	assert.False(t, ok, "entry without fetched_at must be a miss")
}

func TestEntryFormatOnDisk(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.Put("k", "payload"))

	data, err := os.ReadFile(filepath.Join(s.Dir(), s.hash("k")+entrySuffix))
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "payload", raw["payload"])
	fetched, err := time.Parse(time.RFC3339, raw["fetched_at"])
	require.NoError(t, err)
	assert.True(t, fetched.Equal(clock.Now()))
}

func TestURLKeysAreNormalized(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Put("HTTPS://www.Bergfex.com:443/zermatt/", "doc"))

	got, ok := s.Get("https://www.bergfex.com/zermatt/")
	require.True(t, ok)
	assert.Equal(t, "doc", got)
	assert.NotEqual(t, s.hash("https://www.bergfex.com/zermatt/"), s.hash("https://www.bergfex.com/laax/"))
}

func TestPurgeRemovesExpiredEntries(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.Put("old", "a"))
	clock.Advance(25 * time.Hour)
	require.NoError(t, s.Put("new", "b"))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "garbage.json"), []byte("nope"), 0o644))

	n, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := s.Get("new")
	assert.True(t, ok)
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewRejectsNonPositiveTTL(t *testing.T) {
	_, err := New(t.TempDir(), 0)
	assert.Error(t, err)
}

func TestConcurrentWritersLeaveValidEntry(t *testing.T) {
	s, _ := newTestStore(t, WithMemorySize(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put("shared", "payload"))
		}()
	}
	wg.Wait()

	got, ok := s.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "payload", got)
}
