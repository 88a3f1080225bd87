package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-islands/internal/common"
	"github.com/i474232898/city-islands/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
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
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("q", fmt.Sprintf("%f,%f", *loc.Lat, *loc.Lon))
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
		Current struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			Humidity         float64 `json:"humidity"`
			WindKph          float64 `json:"wind_kph"`
			PressureMb       float64 `json:"pressure_mb"`
			PrecipMm         float64 `json:"precip_mm"`
			Cloud            float64 `json:"cloud"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Now().UTC()
	if payload.Current.LastUpdatedEpoch > 0 {
		ts = time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Current.TempC,
		HumidityPct:  payload.Current.Humidity,
		WindSpeedMS:  payload.Current.WindKph / 3.6,
		PressureHpa:  payload.Current.PressureMb,
		PrecipMm:     payload.Current.PrecipMm,
		CloudPct:     payload.Current.Cloud,
		Condition:    mapWeatherAPICondition(payload.Current.Condition.Text),
	}, nil
}

func mapWeatherAPICondition(text string) weather.Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(t, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(t, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
