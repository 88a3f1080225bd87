package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-islands/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key but requires coordinates.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if loc.Lat == nil || loc.Lon == nil {
		return weather.ProviderReading{}, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", *loc.Lat))
	values.Set("longitude", fmt.Sprintf("%f", *loc.Lon))
	values.Set("current", "temperature_2m,relative_humidity_2m,precipitation,snowfall,cloud_cover,wind_speed_10m,surface_pressure,weather_code")
	values.Set("daily", "precipitation_sum,snowfall_sum")
	values.Set("forecast_days", "1")
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, getJSON(p.baseURL+"?"+values.Encode()))
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Precipitation float64 `json:"precipitation"`
			Snowfall      float64 `json:"snowfall"`
			CloudCover    float64 `json:"cloud_cover"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			Pressure      float64 `json:"surface_pressure"`
			WeatherCode   int     `json:"weather_code"`
		} `json:"current"`
		Daily struct {
			PrecipitationSum []float64 `json:"precipitation_sum"`
			SnowfallSum      []float64 `json:"snowfall_sum"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	// Open-Meteo returns ISO8601 without a zone suffix.
	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now()
	}

	c := payload.Current
	return weather.ProviderReading{
		ProviderName:  p.name,
		Timestamp:     ts.UTC(),
		TemperatureC:  c.Temperature,
		HumidityPct:   c.Humidity,
		WindSpeedMS:   c.WindSpeed,
		PressureHpa:   c.Pressure,
		PrecipMm:      c.Precipitation,
		SnowCm:        c.Snowfall,
		CloudPct:      c.CloudCover,
		Condition:     mapOpenMeteoCondition(c.WeatherCode),
		DailyPrecipMm: firstValue(payload.Daily.PrecipitationSum),
		DailySnowCm:   firstValue(payload.Daily.SnowfallSum),
	}, nil
}

func firstValue(vs []float64) *float64 {
	if len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on Open-Meteo weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
