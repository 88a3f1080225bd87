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

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("lat", fmt.Sprintf("%f", *loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", *loc.Lon))
	} else {
		q := loc.City
		if loc.Country != "" {
			q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
		}
		values.Set("q", q)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, getJSON(p.baseURL+"?"+values.Encode()))
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Rain struct {
			OneH   float64 `json:"1h"`
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
		Snow struct {
			OneH float64 `json:"1h"`
		} `json:"snow"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	precip := payload.Rain.OneH
	if precip == 0 {
		precip = payload.Rain.ThreeH
	}

	var main string
	if len(payload.Weather) > 0 {
		main = payload.Weather[0].Main
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
		PressureHpa:  payload.Main.Pressure,
		PrecipMm:     precip + payload.Snow.OneH,
		// 1h snow is reported as water equivalent in mm.
		SnowCm:    payload.Snow.OneH,
		CloudPct:  payload.Clouds.All,
		Condition: mapOpenWeatherCondition(main),
	}, nil
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "":
		return weather.ConditionUnknown
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
