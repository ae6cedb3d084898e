package commands

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/i474232898/skimeister/internal/cache"
	"github.com/i474232898/skimeister/internal/config"
	"github.com/i474232898/skimeister/internal/fetcher"
	"github.com/i474232898/skimeister/internal/ingest"
	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/store"
	"github.com/i474232898/skimeister/internal/weather"
	"github.com/i474232898/skimeister/internal/weather/providers"
)

// openRepository opens the configured store. The returned close function is never nil.
func openRepository(cfg *config.AppConfig) (resort.Repository, func(), error) {
	repo, err := store.Open(cfg.StoreDriver, cfg.DatabasePath, cfg.Status())
	if err != nil {
		return nil, func() {}, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() {}
	if c, ok := repo.(io.Closer); ok {
		closeFn = func() {
			if err := c.Close(); err != nil {
				slog.Warn("close store", "error", err)
			}
		}
	}
	return repo, closeFn, nil
}

func openCache(cfg *config.AppConfig, log *slog.Logger) (*cache.Store, error) {
	c, err := cache.New(cfg.CacheDir, cfg.CacheTTL(), cache.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return c, nil
}

// newForecaster registers every forecast source and orders them by FORECAST_SOURCES.
// Keyed APIs are only registered when their key is configured.
func newForecaster(cfg *config.AppConfig, f *fetcher.Fetcher, log *slog.Logger) *weather.Service {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	registry := map[string]weather.Source{
		"page":       providers.NewPageSource(f),
		"open-meteo": providers.NewOpenMeteoProvider(httpClient),
	}
	if cfg.WeatherAPIKey != "" {
		registry["weatherapi"] = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey)
	}
	if cfg.OpenWeatherAPIKey != "" {
		registry["openweather"] = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	}

	sources := weather.SelectSources(cfg.ForecastSources, registry)
	// A page forecast may need every retry of the fetcher.
	timeout := max(cfg.HTTPTimeout, cfg.Timeout*time.Duration(cfg.MaxRetries))
	svc := weather.NewService(log, timeout, sources...)
	log.Debug("forecast sources", "order", svc.Sources())
	return svc
}

// newPipeline wires cache, fetcher, forecast sources and the optional geocoder.
func newPipeline(cfg *config.AppConfig, repo resort.Repository, log *slog.Logger) (*ingest.Pipeline, error) {
	pages, err := openCache(cfg, log)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(fetcher.Config{
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		BackoffUnit: cfg.BackoffUnit,
	}, fetcher.NewLimiter(cfg.RateLimit), pages, fetcher.WithLogger(log))

	return ingest.NewPipeline(cfg.BaseURL, f, newForecaster(cfg, f, log), repo,
		ingest.WithGeocoder(ingest.NewGoogleGeocoder(cfg.GeocoderAPIKey, log)),
		ingest.WithLogger(log),
	), nil
}
