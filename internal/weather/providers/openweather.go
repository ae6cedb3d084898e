package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/weather"
)

// OpenWeatherProvider reads the OpenWeatherMap 5 day / 3 hour forecast and
// folds it into daily entries.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: DefaultHTTPConfig(client),
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, target weather.Target) ([]resort.ForecastDay, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", p.name, errMissingAPIKey)
	}
	lat, lon, ok := target.Coordinates()
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.name, weather.ErrNoCoordinates)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				TempMin float64 `json:"temp_min"`
				TempMax float64 `json:"temp_max"`
			} `json:"main"`
			Snow struct {
				ThreeH float64 `json:"3h"`
			} `json:"snow"`
			Weather []struct {
				ID int `json:"id"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	readings := make([]weather.Reading, 0, len(payload.List))
	for _, item := range payload.List {
		r := weather.Reading{
			Timestamp: time.Unix(item.Dt, 0).UTC(),
			TempMinC:  item.Main.TempMin,
			TempMaxC:  item.Main.TempMax,
			SnowCm:    item.Snow.ThreeH / 10,
			Symbol:    weather.SymbolUnknown,
		}
		if len(item.Weather) > 0 {
			r.Symbol = mapOpenWeatherCondition(item.Weather[0].ID)
		}
		readings = append(readings, r)
	}
	return weather.AggregateReadings(readings), nil
}

// mapOpenWeatherCondition maps OpenWeatherMap condition ids to symbols.
func mapOpenWeatherCondition(id int) string {
	switch {
	case id >= 200 && id < 300:
		return weather.SymbolThunderstorm
	case id >= 300 && id < 400:
		return weather.SymbolDrizzle
	case id >= 520 && id < 600:
		return weather.SymbolRainShowers
	case id >= 500 && id < 600:
		return weather.SymbolRain
	case id >= 611 && id <= 616:
		return weather.SymbolSnowGrains
	case id >= 620 && id < 700:
		return weather.SymbolSnowShowers
	case id >= 600 && id < 700:
		return weather.SymbolSnow
	case id >= 700 && id < 800:
		return weather.SymbolFog
	case id == 800:
		return weather.SymbolSunny
	case id == 801:
		return weather.SymbolMostlySunny
	case id == 802:
		return weather.SymbolPartlyCloudy
	case id == 803 || id == 804:
		return weather.SymbolCloudy
	default:
		return weather.SymbolUnknown
	}
}
