package resort

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxDescriptionLength bounds the descriptive text kept for a resort, in runes.
const MaxDescriptionLength = 1000

// ErrNotFound is returned by repositories when no resort matches the lookup.
var ErrNotFound = errors.New("resort not found")

// Status is the operating state of a resort.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusPartial Status = "partial"
	StatusUnknown Status = "unknown"
)

// ParseStatus accepts the four known statuses, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusClosed, StatusPartial, StatusUnknown:
		return st, true
	default:
		return "", false
	}
}

// Resort is the canonical record for one ski area. It is built up partially
// by the extractor, so most fields are optional.
type Resort struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Country string `json:"country"`
	Region  string `json:"region"`

	// Both coordinates are required for any distance based use.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	AltitudeMin *int `json:"altitude_min"`
	AltitudeMax *int `json:"altitude_max"`

	Website     string `json:"website"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url,omitempty"`

	Conditions *Conditions   `json:"conditions,omitempty"`
	Pricing    *Pricing      `json:"pricing,omitempty"`
	Forecasts  []ForecastDay `json:"forecasts,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Coordinates reports the resort location when both latitude and longitude are known.
func (r Resort) Coordinates() (lat, lon float64, ok bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return 0, 0, false
	}
	return *r.Latitude, *r.Longitude, true
}

// Conditions holds the current snow and weather report.
type Conditions struct {
	SnowDepthValley   *int `json:"snow_depth_valley"`   // cm
	SnowDepthMountain *int `json:"snow_depth_mountain"` // cm
	FreshSnow24h      *int `json:"fresh_snow_24h"`      // cm
	FreshSnow48h      *int `json:"fresh_snow_48h"`      // cm

	TemperatureValley   *float64 `json:"temperature_valley"`   // celsius
	TemperatureMountain *float64 `json:"temperature_mountain"` // celsius
	WindSpeed           *int     `json:"wind_speed"`           // km/h
	Visibility          string   `json:"visibility"`           // good, moderate, poor

	SlopesOpenKm  *float64 `json:"slopes_open_km"`
	SlopesTotalKm *float64 `json:"slopes_total_km"`
	LiftsOpen     *int     `json:"lifts_open"`
	LiftsTotal    *int     `json:"lifts_total"`

	Status      *Status   `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

// Pricing holds lift ticket prices.
type Pricing struct {
	AdultDayPass *float64  `json:"adult_day_pass"`
	ChildDayPass *float64  `json:"child_day_pass"`
	Currency     string    `json:"currency"`
	SeasonStart  string    `json:"season_start"`
	SeasonEnd    string    `json:"season_end"`
	LastUpdated  time.Time `json:"last_updated"`
}

// ForecastDay is one day of a multi-day forecast. Date is midnight UTC.
type ForecastDay struct {
	Date           time.Time `json:"date"`
	TempMin        *float64  `json:"temp_min"`
	TempMax        *float64  `json:"temp_max"`
	Symbol         string    `json:"symbol"`
	SnowForecastCm int       `json:"snow_forecast_cm"`
}

// Stats summarizes the stored dataset.
type Stats struct {
	TotalResorts int      `json:"total_resorts"`
	Countries    []string `json:"countries"`
}

// Repository is the persistence contract used by ingestion and the HTTP layer.
//
// UpsertResort merges r into the aggregate sharing its slug (see Merge) and
// returns the resort id.
type Repository interface {
	UpsertResort(ctx context.Context, r Resort) (uint, error)
	ListResorts(ctx context.Context) ([]Resort, error)
	GetResort(ctx context.Context, id uint) (Resort, error)
	Stats(ctx context.Context) (Stats, error)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return Ptr(*p)
}

// Clone returns a copy of c that shares no pointers with it.
func (c Conditions) Clone() *Conditions {
	c.SnowDepthValley = clonePtr(c.SnowDepthValley)
	c.SnowDepthMountain = clonePtr(c.SnowDepthMountain)
	c.FreshSnow24h = clonePtr(c.FreshSnow24h)
	c.FreshSnow48h = clonePtr(c.FreshSnow48h)
	c.TemperatureValley = clonePtr(c.TemperatureValley)
	c.TemperatureMountain = clonePtr(c.TemperatureMountain)
	c.WindSpeed = clonePtr(c.WindSpeed)
	c.SlopesOpenKm = clonePtr(c.SlopesOpenKm)
	c.SlopesTotalKm = clonePtr(c.SlopesTotalKm)
	c.LiftsOpen = clonePtr(c.LiftsOpen)
	c.LiftsTotal = clonePtr(c.LiftsTotal)
	c.Status = clonePtr(c.Status)
	return &c
}

// Clone returns a copy of p that shares no pointers with it.
func (p Pricing) Clone() *Pricing {
	p.AdultDayPass = clonePtr(p.AdultDayPass)
	p.ChildDayPass = clonePtr(p.ChildDayPass)
	return &p
}

// Clone returns a deep copy of r.
func (r Resort) Clone() Resort {
	r.Latitude = clonePtr(r.Latitude)
	r.Longitude = clonePtr(r.Longitude)
	r.AltitudeMin = clonePtr(r.AltitudeMin)
	r.AltitudeMax = clonePtr(r.AltitudeMax)
	if r.Conditions != nil {
		r.Conditions = r.Conditions.Clone()
	}
	if r.Pricing != nil {
		r.Pricing = r.Pricing.Clone()
	}
	if r.Forecasts != nil {
		days := make([]ForecastDay, len(r.Forecasts))
		for i, d := range r.Forecasts {
			d.TempMin = clonePtr(d.TempMin)
			d.TempMax = clonePtr(d.TempMax)
			days[i] = d
		}
		r.Forecasts = days
	}
	return r
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
