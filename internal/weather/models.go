package weather

import (
	"fmt"
	"time"
)

// Symbols shared by every source. Page sources may also report the raw
// icon name used by the site.
const (
	SymbolSunny        = "sunny"
	SymbolMostlySunny  = "mostly_sunny"
	SymbolPartlyCloudy = "partly_cloudy"
	SymbolCloudy       = "cloudy"
	SymbolFog          = "fog"
	SymbolDrizzle      = "drizzle"
	SymbolRain         = "rain"
	SymbolSnow         = "snow"
	SymbolSnowGrains   = "snow_grains"
	SymbolRainShowers  = "rain_showers"
	SymbolSnowShowers  = "snow_showers"
	SymbolThunderstorm = "thunderstorm"
	SymbolUnknown      = "unknown"
)

// Target identifies the place a forecast is wanted for. PageURL feeds page
// based sources, the coordinates feed API sources.
type Target struct {
	PageURL   string   `json:"page_url"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Coordinates returns the target location when both values are set.
func (t Target) Coordinates() (lat, lon float64, ok bool) {
	if t.Latitude == nil || t.Longitude == nil {
		return 0, 0, false
	}
	return *t.Latitude, *t.Longitude, true
}

// Key returns a string for logging.
func (t Target) Key() string {
	if lat, lon, ok := t.Coordinates(); ok {
		return fmt.Sprintf("%s@%.4f,%.4f", t.PageURL, lat, lon)
	}
	return t.PageURL
}

// Reading is one sub-daily forecast slot. Readings are bucketed per UTC day
// by AggregateReadings.
type Reading struct {
	Timestamp time.Time
	TempMinC  float64
	TempMaxC  float64
	SnowCm    float64
	Symbol    string
}
