package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/skimeister/internal/common"
	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/weather"
)

// WeatherAPIProvider reads the weatherapi.com daily forecast.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: DefaultHTTPConfig(client),
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Forecast(ctx context.Context, target weather.Target) ([]resort.ForecastDay, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", p.name, errMissingAPIKey)
	}
	lat, lon, ok := target.Coordinates()
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.name, weather.ErrNoCoordinates)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", fmt.Sprintf("%s,%s", strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64)))
	values.Set("days", strconv.Itoa(weather.MaxDays))

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC    float64 `json:"maxtemp_c"`
					MinTempC    float64 `json:"mintemp_c"`
					TotalSnowCm float64 `json:"totalsnow_cm"`
					Condition   struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	days := make([]resort.ForecastDay, 0, len(payload.Forecast.ForecastDay))
	for _, fd := range payload.Forecast.ForecastDay {
		date, err := time.Parse(time.DateOnly, fd.Date)
		if err != nil {
			continue
		}
		days = append(days, resort.ForecastDay{
			Date:           date,
			TempMax:        resort.Ptr(fd.Day.MaxTempC),
			TempMin:        resort.Ptr(fd.Day.MinTempC),
			Symbol:         mapConditionText(fd.Day.Condition.Text),
			SnowForecastCm: int(fd.Day.TotalSnowCm),
		})
	}
	return weather.NormalizeDays(days), nil
}

// mapConditionText maps free-text condition descriptions to symbols.
// More specific phrases are checked first.
func mapConditionText(text string) string {
	t := strings.ToLower(text)
	switch {
	case common.HasAny(t, "thunder"):
		return weather.SymbolThunderstorm
	case common.HasAny(t, "snow shower"):
		return weather.SymbolSnowShowers
	case common.HasAny(t, "ice pellets", "sleet"):
		return weather.SymbolSnowGrains
	case common.HasAny(t, "snow", "blizzard"):
		return weather.SymbolSnow
	case common.HasAny(t, "rain shower"):
		return weather.SymbolRainShowers
	case common.HasAny(t, "drizzle"):
		return weather.SymbolDrizzle
	case common.HasAny(t, "rain"):
		return weather.SymbolRain
	case common.HasAny(t, "fog", "mist"):
		return weather.SymbolFog
	case common.HasAny(t, "partly"):
		return weather.SymbolPartlyCloudy
	case common.HasAny(t, "cloudy", "overcast"):
		return weather.SymbolCloudy
	case common.HasAny(t, "sunny", "clear"):
		return weather.SymbolSunny
	default:
		return weather.SymbolUnknown
	}
}
