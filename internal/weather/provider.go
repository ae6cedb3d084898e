package weather

import (
	"context"
	"errors"

	"github.com/i474232898/skimeister/internal/resort"
)

var (
	// ErrNoCoordinates is returned by API sources for targets without a location.
	ErrNoCoordinates = errors.New("target has no coordinates")
	// ErrNoPage is returned by page sources for targets without a page URL.
	ErrNoPage = errors.New("target has no forecast page")
)

// Source abstracts a forecast origin (the resort site, Open-Meteo, WeatherAPI, OpenWeatherMap).
type Source interface {
	Name() string
	Forecast(ctx context.Context, target Target) ([]resort.ForecastDay, error)
}
