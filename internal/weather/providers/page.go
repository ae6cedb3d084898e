package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/skimeister/internal/extract"
	"github.com/i474232898/skimeister/internal/fetcher"
	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/weather"
)

// DocumentFetcher is satisfied by *fetcher.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, key string, opts ...fetcher.CallOption) (string, error)
}

// PageSource reads the forecast block published on the resort site itself.
// Requests go through the shared fetcher, so they respect its rate limit and cache.
type PageSource struct {
	fetcher DocumentFetcher
	now     func() time.Time
}

func NewPageSource(f DocumentFetcher) *PageSource {
	return &PageSource{fetcher: f, now: time.Now}
}

func (p *PageSource) Name() string {
	return "page"
}

func (p *PageSource) Forecast(ctx context.Context, target weather.Target) ([]resort.ForecastDay, error) {
	if target.PageURL == "" {
		return nil, fmt.Errorf("page: %w", weather.ErrNoPage)
	}

	doc, err := p.fetcher.Fetch(ctx, target.PageURL)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}

	days, err := extract.ParseForecast(doc, p.now())
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	return days, nil
}
