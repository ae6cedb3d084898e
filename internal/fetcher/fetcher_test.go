package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	puts int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}}
}

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Put(key, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = payload
	c.puts++
	return nil
}

func testConfig(retries int) Config {
	return Config{Timeout: 2 * time.Second, MaxRetries: retries, BackoffUnit: time.Millisecond}
}

func TestFetchSuccessWritesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.True(t, slices.Contains(UserAgents, r.Header.Get("User-Agent")))
		assert.Equal(t, acceptLanguage, r.Header.Get("Accept-Language"))
		assert.Equal(t, acceptHeader, r.Header.Get("Accept"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := newMapCache()
	f := New(testConfig(3), NewLimiter(0), c)

	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", doc)

	doc, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", doc)

	assert.Equal(t, int32(1), hits.Load(), "second call must be served from cache")
	assert.Equal(t, 1, c.puts)
}

func TestFetchWithoutCacheBypassesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	c := newMapCache()
	require.NoError(t, c.Put(srv.URL, "stale"))
	f := New(testConfig(1), NewLimiter(0), c)

	doc, err := f.Fetch(context.Background(), srv.URL, WithoutCache())
	require.NoError(t, err)
	assert.Equal(t, "fresh", doc)
	assert.Equal(t, int32(1), hits.Load())

	v, _ := c.Get(srv.URL)
	assert.Equal(t, "stale", v, "uncached call must not write the cache")
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	for _, status := range []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusRequestTimeout} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(status)
		}))

		f := New(testConfig(3), NewLimiter(0), nil)
		_, err := f.Fetch(context.Background(), srv.URL)
		srv.Close()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.Equal(t, int32(3), hits.Load(), "status %d: attempts must equal max retries", status)
	}
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("third time lucky"))
	}))
	defer srv.Close()

	f := New(testConfig(3), NewLimiter(0), nil)
	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", doc)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(testConfig(3), NewLimiter(0), nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchTransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := New(testConfig(2), NewLimiter(0), nil)
	_, err := f.Fetch(context.Background(), url)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestLimiterSpacesEveryAttempt(t *testing.T) {
	const interval = 40 * time.Millisecond

	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		n := len(arrivals)
		mu.Unlock()
		if n == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(testConfig(3), NewLimiter(interval), nil)
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 4)
	for i := 1; i < len(arrivals); i++ {
		gap := arrivals[i].Sub(arrivals[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "gap %d too small: %s", i, gap)
	}
}

func TestCacheHitSkipsLimiter(t *testing.T) {
	c := newMapCache()
	require.NoError(t, c.Put("https://example.test/a", "cached"))

	f := New(testConfig(1), NewLimiter(time.Hour), c)
	start := time.Now()
	for i := 0; i < 5; i++ {
		doc, err := f.Fetch(context.Background(), "https://example.test/a")
		require.NoError(t, err)
		assert.Equal(t, "cached", doc)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(Config{Timeout: time.Second, MaxRetries: 5, BackoffUnit: time.Second}, NewLimiter(0), nil)
	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}
