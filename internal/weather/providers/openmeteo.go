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

// OpenMeteoProvider reads the keyless Open-Meteo daily forecast.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "open-meteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: DefaultHTTPConfig(client),
		circuit: newBreaker("open-meteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Forecast(ctx context.Context, target weather.Target) ([]resort.ForecastDay, error) {
	lat, lon, ok := target.Coordinates()
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.name, weather.ErrNoCoordinates)
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("daily", "temperature_2m_max,temperature_2m_min,snowfall_sum,weathercode")
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(weather.MaxDays))

	var payload struct {
		Daily struct {
			Time        []string   `json:"time"`
			TempMax     []*float64 `json:"temperature_2m_max"`
			TempMin     []*float64 `json:"temperature_2m_min"`
			SnowfallSum []*float64 `json:"snowfall_sum"`
			WeatherCode []*int     `json:"weathercode"`
		} `json:"daily"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	d := payload.Daily
	n := min(len(d.Time), len(d.TempMax), len(d.TempMin), len(d.SnowfallSum), len(d.WeatherCode))

	days := make([]resort.ForecastDay, 0, n)
	for i := 0; i < n; i++ {
		date, err := time.Parse(time.DateOnly, d.Time[i])
		if err != nil {
			continue
		}
		day := resort.ForecastDay{
			Date:    date,
			TempMax: d.TempMax[i],
			TempMin: d.TempMin[i],
			Symbol:  weather.SymbolUnknown,
		}
		if d.SnowfallSum[i] != nil {
			day.SnowForecastCm = int(*d.SnowfallSum[i])
		}
		if d.WeatherCode[i] != nil {
			day.Symbol = mapWMOCode(*d.WeatherCode[i])
		}
		days = append(days, day)
	}
	return weather.NormalizeDays(days), nil
}

// mapWMOCode maps WMO weather interpretation codes to symbols.
func mapWMOCode(code int) string {
	switch code {
	case 0:
		return weather.SymbolSunny
	case 1:
		return weather.SymbolMostlySunny
	case 2:
		return weather.SymbolPartlyCloudy
	case 3:
		return weather.SymbolCloudy
	case 45, 48:
		return weather.SymbolFog
	case 51, 53, 55:
		return weather.SymbolDrizzle
	case 61, 63, 65:
		return weather.SymbolRain
	case 71, 73, 75:
		return weather.SymbolSnow
	case 77:
		return weather.SymbolSnowGrains
	case 80, 81, 82:
		return weather.SymbolRainShowers
	case 85, 86:
		return weather.SymbolSnowShowers
	case 95:
		return weather.SymbolThunderstorm
	default:
		return weather.SymbolUnknown
	}
}
