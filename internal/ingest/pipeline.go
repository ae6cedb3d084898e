// Package ingest runs the acquisition batch: list a country's resorts, scrape
// each detail page, attach a forecast and store the result.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/i474232898/skimeister/internal/extract"
	"github.com/i474232898/skimeister/internal/fetcher"
	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/weather"
)

var tracer = otel.Tracer("skimeister.internal.ingest")

// DocumentFetcher is satisfied by *fetcher.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, key string, opts ...fetcher.CallOption) (string, error)
}

// Forecaster is satisfied by *weather.Service.
type Forecaster interface {
	Forecast(ctx context.Context, target weather.Target) []resort.ForecastDay
}

// Report summarizes one batch run.
type Report struct {
	Country  string        `json:"country"`
	Listed   int           `json:"listed"`
	Scraped  int           `json:"scraped"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Pipeline wires the acquisition components together.
type Pipeline struct {
	baseURL  string
	fetch    DocumentFetcher
	forecast Forecaster
	geocode  Geocoder
	repo     resort.Repository
	log      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGeocoder sets the fallback used for resorts without structured coordinates.
func WithGeocoder(g Geocoder) Option {
	return func(p *Pipeline) { p.geocode = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline creates a Pipeline reading listings below baseURL.
func NewPipeline(baseURL string, f DocumentFetcher, fc Forecaster, repo resort.Repository, opts ...Option) *Pipeline {
	p := &Pipeline{
		baseURL:  baseURL,
		fetch:    f,
		forecast: fc,
		repo:     repo,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scrapes up to limit resorts of country (all when limit <= 0). Failures
// of single resorts are logged and counted as skipped; only a failed listing
// or a cancelled context ends the run early.
func (p *Pipeline) Run(ctx context.Context, country string, limit int) (Report, error) {
	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()
	span.SetAttributes(attribute.String("ingest.country", country), attribute.Int("ingest.limit", limit))

	start := time.Now()
	report := Report{Country: country}

	listURL := extract.ListingURL(p.baseURL, country)
	doc, err := p.fetch.Fetch(ctx, listURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing fetch failed")
		return report, fmt.Errorf("fetch listing for %s: %w", country, err)
	}
	entries, err := extract.ParseListing(doc, p.baseURL, country)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing parse failed")
		return report, fmt.Errorf("parse listing for %s: %w", country, err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	report.Listed = len(entries)
	p.log.Info("resort listing loaded", "country", country, "resorts", len(entries))

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			report.Skipped += len(entries) - i
			report.Duration = time.Since(start)
			return report, err
		}

		p.log.Info("scraping resort", "progress", fmt.Sprintf("%d/%d", i+1, len(entries)), "name", entry.Name)
		if _, err := p.Scrape(ctx, entry); err != nil {
			report.Skipped++
			p.log.Warn("resort skipped", "name", entry.Name, "url", entry.URL, "error", err)
			continue
		}
		report.Scraped++
	}

	report.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("ingest.scraped", report.Scraped), attribute.Int("ingest.skipped", report.Skipped))
	p.log.Info("ingest finished", "country", country, "scraped", report.Scraped, "skipped", report.Skipped, "duration", report.Duration)
	return report, nil
}

// Scrape acquires a single resort and stores it, returning its id.
func (p *Pipeline) Scrape(ctx context.Context, entry extract.ListingEntry) (uint, error) {
	ctx, span := tracer.Start(ctx, "ingest.Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("resort.url", entry.URL))

	doc, err := p.fetch.Fetch(ctx, entry.URL)
	if err != nil {
		return 0, err
	}

	r, err := extract.Extract(doc, entry.URL)
	if err != nil {
		return 0, err
	}
	if entry.Slug != "" {
		r.Slug = entry.Slug
	}
	if r.Name == "" {
		r.Name = entry.Name
	}
	if entry.Country != "" {
		r.Country = entry.Country
	}

	if _, _, ok := r.Coordinates(); !ok && p.geocode != nil {
		if lat, lon, ok := p.geocode.Locate(ctx, r); ok {
			r.Latitude, r.Longitude = &lat, &lon
		}
	}

	if p.forecast != nil {
		r.Forecasts = p.forecast.Forecast(ctx, weather.Target{
			PageURL:   extract.ForecastURL(entry.URL),
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}

	id, err := p.repo.UpsertResort(ctx, r)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("store %s: %w", r.Slug, err)
	}
	return id, nil
}

// Seed stores resorts directly, bypassing acquisition.
func (p *Pipeline) Seed(ctx context.Context, resorts []resort.Resort) (Report, error) {
	start := time.Now()
	report := Report{Listed: len(resorts)}
	var errs []error
	for _, r := range resorts {
		if _, err := p.repo.UpsertResort(ctx, r); err != nil {
			report.Skipped++
			errs = append(errs, fmt.Errorf("%s: %w", r.Slug, err))
			continue
		}
		report.Scraped++
	}
	report.Duration = time.Since(start)
	return report, errors.Join(errs...)
}
