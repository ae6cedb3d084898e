package resort

import (
	"slices"
	"time"
)

// DefaultCountry is stored for new resorts whose country is not known.
const DefaultCountry = "Unknown"

// Merge folds a freshly scraped record into the stored aggregate.
//
// Identity and location fields only overwrite when supplied. Conditions and
// pricing are replaced wholesale when the incoming record carries them.
// A non-empty forecast set supersedes the stored one; an empty one keeps it.
// defaultStatus is written into conditions that arrive without a status,
// an empty defaultStatus leaves the status unset.
func Merge(existing, incoming Resort, now time.Time, defaultStatus Status) Resort {
	out := existing.Clone()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	if incoming.Slug != "" {
		out.Slug = incoming.Slug
	}
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if incoming.Country != "" {
		out.Country = incoming.Country
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	if incoming.Region != "" {
		out.Region = incoming.Region
	}
	if incoming.Latitude != nil {
		out.Latitude = Ptr(*incoming.Latitude)
	}
	if incoming.Longitude != nil {
		out.Longitude = Ptr(*incoming.Longitude)
	}
	if incoming.AltitudeMin != nil {
		out.AltitudeMin = Ptr(*incoming.AltitudeMin)
	}
	if incoming.AltitudeMax != nil {
		out.AltitudeMax = Ptr(*incoming.AltitudeMax)
	}
	if incoming.Website != "" {
		out.Website = incoming.Website
	}
	if incoming.Description != "" {
		out.Description = Truncate(incoming.Description, MaxDescriptionLength)
	}
	if incoming.SourceURL != "" {
		out.SourceURL = incoming.SourceURL
	}

	if incoming.Conditions != nil {
		c := incoming.Conditions.Clone()
		if c.Status == nil && defaultStatus != "" {
			c.Status = Ptr(defaultStatus)
		}
		c.LastUpdated = now
		out.Conditions = c
	}

	if incoming.Pricing != nil {
		p := incoming.Pricing.Clone()
		if p.Currency == "" {
			p.Currency = "CHF"
		}
		p.LastUpdated = now
		out.Pricing = p
	}

	if len(incoming.Forecasts) > 0 {
		days := Resort{Forecasts: incoming.Forecasts}.Clone().Forecasts
		slices.SortStableFunc(days, func(a, b ForecastDay) int {
			return a.Date.Compare(b.Date)
		})
		out.Forecasts = days
	}

	return out
}
