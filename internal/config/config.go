package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/search"
)

type AppConfig struct {
	Port         string `env:"PORT" envDefault:"5000" validate:"required,numeric"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite" validate:"oneof=sqlite memory"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"skimeister.db"`
	DefaultStatus string `env:"DEFAULT_STATUS" envDefault:"unknown" validate:"omitempty,oneof=open closed partial unknown none"`

	CacheDir      string `env:"CACHE_DIR" envDefault:"cache" validate:"required"`
	CacheTTLHours int    `env:"CACHE_TTL_HOURS" envDefault:"24" validate:"gt=0"`

	// Scraper settings. RateLimit is the minimum spacing between requests.
	RateLimit   time.Duration `env:"SCRAPER_RATE_LIMIT" envDefault:"2s"`
	Timeout     time.Duration `env:"SCRAPER_TIMEOUT" envDefault:"30s"`
	MaxRetries  int           `env:"SCRAPER_MAX_RETRIES" envDefault:"3" validate:"gte=1"`
	BackoffUnit time.Duration `env:"SCRAPER_BACKOFF_UNIT" envDefault:"1s"`
	BaseURL     string        `env:"SCRAPER_BASE_URL" envDefault:"https://www.bergfex.com" validate:"required,url"`
	Countries   []string      `env:"SCRAPER_COUNTRIES" envDefault:"schweiz" envSeparator:"," validate:"min=1,dive,required"`
	Limit       int           `env:"SCRAPER_LIMIT" envDefault:"0" validate:"gte=0"`

	// RefreshInterval of zero disables the scheduler.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"6h"`

	ForecastSources   []string      `env:"FORECAST_SOURCES" envDefault:"page,open-meteo,weatherapi,openweather" envSeparator:","`
	OpenWeatherAPIKey string        `env:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string        `env:"WEATHERAPI_API_KEY"`
	GeocoderAPIKey    string        `env:"GEOCODER_API_KEY"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	DefaultRadiusKm float64 `env:"DEFAULT_SEARCH_RADIUS_KM" envDefault:"200"`
	MinRadiusKm     float64 `env:"MIN_SEARCH_RADIUS_KM" envDefault:"10"`
	MaxRadiusKm     float64 `env:"MAX_SEARCH_RADIUS_KM" envDefault:"500"`
}

var validate = validator.New()

// Load reads configuration from the environment, after loading .env if present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	return Parse(env.Options{})
}

// Parse reads configuration using opts, which lets tests supply an
// environment map instead of the process environment.
func Parse(opts env.Options) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("SCRAPER_RATE_LIMIT must not be negative"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("SCRAPER_TIMEOUT must be positive"))
	}
	if c.BackoffUnit < 0 {
		errs = append(errs, errors.New("SCRAPER_BACKOFF_UNIT must not be negative"))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, errors.New("REFRESH_INTERVAL must not be negative"))
	}
	if c.RefreshInterval > 0 && c.RefreshInterval < time.Minute {
		errs = append(errs, errors.New("REFRESH_INTERVAL must be at least one minute"))
	}
	if err := validate.Struct(c.RadiusBounds()); err != nil {
		errs = append(errs, fmt.Errorf("search radius bounds: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// CacheTTL returns the cache entry lifetime.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// statusNone disables the default status. An empty variable cannot express
// this because env falls back to envDefault for empty values.
const statusNone = "none"

// Status returns the configured default status, empty for "none".
func (c *AppConfig) Status() resort.Status {
	if c.DefaultStatus == statusNone {
		return ""
	}
	return resort.Status(c.DefaultStatus)
}

// RadiusBounds returns the search radius settings.
func (c *AppConfig) RadiusBounds() search.RadiusBounds {
	return search.RadiusBounds{Min: c.MinRadiusKm, Max: c.MaxRadiusKm, Default: c.DefaultRadiusKm}
}

// SlogLevel maps LogLevel to a slog level.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
