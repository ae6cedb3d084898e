package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/skimeister/internal/resort"
)

// Geocoder resolves a resort to coordinates when the page carries none.
type Geocoder interface {
	Locate(ctx context.Context, r resort.Resort) (lat, lon float64, ok bool)
}

// GoogleGeocoder looks resorts up through the Google geocoding API.
type GoogleGeocoder struct {
	log *slog.Logger
	// lookup is swapped in tests.
	lookup func(geocoder.Address) (geocoder.Location, error)
}

var apiKeyOnce sync.Once

// NewGoogleGeocoder returns nil when apiKey is empty, so callers can pass the
// result straight to WithGeocoder.
func NewGoogleGeocoder(apiKey string, log *slog.Logger) Geocoder {
	if apiKey == "" {
		return nil
	}
	apiKeyOnce.Do(func() { geocoder.ApiKey = apiKey })
	if log == nil {
		log = slog.Default()
	}
	return &GoogleGeocoder{log: log, lookup: geocoder.Geocoding}
}

func (g *GoogleGeocoder) Locate(ctx context.Context, r resort.Resort) (float64, float64, bool) {
	if ctx.Err() != nil || r.Name == "" {
		return 0, 0, false
	}
	loc, err := g.lookup(geocoder.Address{
		City:    r.Name,
		State:   r.Region,
		Country: r.Country,
	})
	if err != nil {
		g.log.Warn("geocoding failed", "resort", r.Name, "error", err)
		return 0, 0, false
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return 0, 0, false
	}
	return loc.Latitude, loc.Longitude, true
}
