package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skimeister/internal/fetcher"
	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/store"
	"github.com/i474232898/skimeister/internal/weather"
)

const base = "https://www.bergfex.com"

type pageFetcher map[string]string

func (f pageFetcher) Fetch(ctx context.Context, key string, opts ...fetcher.CallOption) (string, error) {
	doc, ok := f[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", fetcher.ErrFetchFailed, key)
	}
	return doc, nil
}

type recordingForecaster struct {
	targets []weather.Target
}

func (r *recordingForecaster) Forecast(ctx context.Context, t weather.Target) []resort.ForecastDay {
	r.targets = append(r.targets, t)
	return []resort.ForecastDay{{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Symbol: "snow", SnowForecastCm: 5}}
}

type fixedGeocoder struct {
	calls int
}

func (g *fixedGeocoder) Locate(ctx context.Context, r resort.Resort) (float64, float64, bool) {
	g.calls++
	return 46.8332, 9.2607, true
}

func listing() string {
	return `<html><body>
	<a class="js-track" href="/zermatt/"><span>Zermatt</span></a>
	<a class="js-track" href="/laax/"><span>Laax</span></a>
	<a class="js-track" href="/broken/"><span>Broken</span></a>
	<a class="js-track" href="/missing/"><span>Missing</span></a>
	</body></html>`
}

func pages() pageFetcher {
	return pageFetcher{
		base + "/schweiz/skigebiete/": listing(),
		base + "/zermatt/": `<html><head><script type="application/ld+json">{"@type":"SkiResort","geo":{"latitude":45.9763,"longitude":7.7476}}</script></head>
			<body><h1>Zermatt</h1><p>1620m - 3883m</p></body></html>`,
		base + "/laax/":   `<html><body><h1>Laax</h1></body></html>`,
		base + "/broken/": `<html><body><p>no heading at all</p></body></html>`,
	}
}

func TestRunScrapesAndSkips(t *testing.T) {
	repo := store.NewMemoryStore(resort.StatusUnknown)
	fc := &recordingForecaster{}
	geo := &fixedGeocoder{}
	p := NewPipeline(base, pages(), fc, repo, WithGeocoder(geo))

	report, err := p.Run(context.Background(), "schweiz", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Listed)
	assert.Equal(t, 2, report.Scraped)
	assert.Equal(t, 2, report.Skipped)

	all, err := repo.ListResorts(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	z := all[0]
	assert.Equal(t, "zermatt", z.Slug)
	assert.Equal(t, "Schweiz", z.Country)
	assert.Equal(t, 3883, *z.AltitudeMax)
	require.Len(t, z.Forecasts, 1)

	l := all[1]
	require.NotNil(t, l.Latitude, "geocoder fills missing coordinates")
	assert.InDelta(t, 46.8332, *l.Latitude, 1e-9)
	assert.Equal(t, 1, geo.calls)

	require.Len(t, fc.targets, 2)
	assert.Equal(t, base+"/zermatt/wetter/prognose/", fc.targets[0].PageURL)
	lat, _, ok := fc.targets[0].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 45.9763, lat, 1e-9)
}

func TestRunHonoursLimit(t *testing.T) {
	repo := store.NewMemoryStore(resort.StatusUnknown)
	p := NewPipeline(base, pages(), nil, repo)

	report, err := p.Run(context.Background(), "schweiz", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Listed)
	assert.Equal(t, 1, report.Scraped)
}

func TestRunFailsWithoutListing(t *testing.T) {
	p := NewPipeline(base, pageFetcher{}, nil, store.NewMemoryStore(""))
	_, err := p.Run(context.Background(), "oesterreich", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fetcher.ErrFetchFailed))
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(base, pages(), nil, store.NewMemoryStore(""))
	report, err := p.Run(ctx, "schweiz", 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, report.Skipped)
	assert.Zero(t, report.Scraped)
}

func TestSeedSampleResorts(t *testing.T) {
	repo := store.NewMemoryStore(resort.StatusUnknown)
	p := NewPipeline(base, pageFetcher{}, nil, repo)

	report, err := p.Seed(context.Background(), SampleResorts())
	require.NoError(t, err)
	assert.Equal(t, 8, report.Scraped)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalResorts)
	assert.Equal(t, []string{"Switzerland"}, stats.Countries)
}

func TestGoogleGeocoder(t *testing.T) {
	assert.Nil(t, NewGoogleGeocoder("", nil))

	g := &GoogleGeocoder{
		log: nil,
		lookup: func(a geocoder.Address) (geocoder.Location, error) {
			assert.Equal(t, "Laax", a.City)
			assert.Equal(t, "Switzerland", a.Country)
			return geocoder.Location{Latitude: 46.8, Longitude: 9.2}, nil
		},
	}
	lat, lon, ok := g.Locate(context.Background(), resort.Resort{Name: "Laax", Country: "Switzerland"})
	require.True(t, ok)
	assert.Equal(t, 46.8, lat)
	assert.Equal(t, 9.2, lon)
}
