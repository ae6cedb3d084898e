// Package fetcher retrieves remote documents politely: one shared rate
// limiter, bounded retries with exponential backoff and a read-through cache.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("skimeister.internal.fetcher")

// ErrFetchFailed is returned when a document could not be retrieved.
var ErrFetchFailed = errors.New("fetch failed")

const (
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

// UserAgents is the pool a request's User-Agent is drawn from.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Cache is the subset of the cache store used by the fetcher.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, payload string) error
}

// Config holds fetch tuning knobs.
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	BackoffUnit time.Duration
}

// DefaultConfig mirrors the production scraper settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		BackoffUnit: time.Second,
	}
}

// NewLimiter returns a limiter admitting one request per interval.
// A non-positive interval disables limiting.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Fetcher fetches documents by key (a URL). All network attempts made through
// one Fetcher share its limiter.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	cache   Cache
	cfg     Config
	log     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// WithClient replaces the resty client, mostly for tests.
func WithClient(c *resty.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New builds a Fetcher. cache may be nil, in which case every call goes to the network.
func New(cfg Config, limiter *rate.Limiter, cache Cache, opts ...Option) *Fetcher {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	f := &Fetcher{
		client:  resty.New().SetTimeout(cfg.Timeout),
		limiter: limiter,
		cache:   cache,
		cfg:     cfg,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type callOptions struct {
	useCache bool
}

// CallOption tunes a single Fetch call.
type CallOption func(*callOptions)

// WithoutCache skips both the cache lookup and the cache write.
func WithoutCache() CallOption {
	return func(o *callOptions) { o.useCache = false }
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func retryable(err error) bool {
	var se statusError
	if !errors.As(err, &se) {
		return true
	}
	return se.code == http.StatusRequestTimeout ||
		se.code == http.StatusTooManyRequests ||
		se.code >= 500
}

// Fetch returns the document for key, consulting the cache first unless
// WithoutCache is given. Failures wrap ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, key string, opts ...CallOption) (string, error) {
	co := callOptions{useCache: f.cache != nil}
	for _, opt := range opts {
		opt(&co)
	}

	ctx, span := tracer.Start(ctx, "fetcher.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("fetch.key", key))

	if co.useCache {
		if doc, ok := f.cache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			f.log.Debug("cache hit", "key", key)
			return doc, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.cfg.BackoffUnit * time.Duration(1<<(attempt-1))
			if err := sleep(ctx, delay); err != nil {
				return "", f.fail(span, key, err)
			}
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return "", f.fail(span, key, err)
		}

		body, err := f.attempt(ctx, key)
		if err == nil {
			span.SetAttributes(attribute.Int("fetch.attempts", attempt+1))
			if co.useCache {
				if perr := f.cache.Put(key, body); perr != nil {
					f.log.Warn("cache write failed", "key", key, "error", perr)
				}
			}
			return body, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		f.log.Warn("fetch attempt failed", "key", key, "attempt", attempt+1, "max_retries", f.cfg.MaxRetries, "error", err)
	}

	return "", f.fail(span, key, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, key string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", UserAgents[rand.Intn(len(UserAgents))]).
		SetHeader("Accept", acceptHeader).
		SetHeader("Accept-Language", acceptLanguage).
		Get(key)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", statusError{code: resp.StatusCode()}
	}
	return resp.String(), nil
}

func (f *Fetcher) fail(span trace.Span, key string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	f.log.Error("fetch failed", "key", key, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, key, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
