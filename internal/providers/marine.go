package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/marine"
)

// MarineClient reads current sea conditions from the Open-Meteo marine API.
type MarineClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewMarineClient(client *http.Client, baseURL string) *MarineClient {
	if baseURL == "" {
		baseURL = "https://marine-api.open-meteo.com"
	}
	return &MarineClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("marine"),
	}
}

// Observe returns the sea state at c. Wind is not part of the marine feed and
// is left at zero.
func (m *MarineClient) Observe(ctx context.Context, c island.Coordinate) (marine.Observation, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", c.Lat))
	values.Set("longitude", fmt.Sprintf("%f", c.Lon))
	values.Set("current", "wave_height,wave_direction,wave_period,sea_surface_temperature")

	resp, err := doRequestWithResilience(ctx, m.httpCfg, m.circuit, getJSON(m.baseURL+"/v1/marine?"+values.Encode()))
	if err != nil {
		return marine.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			WaveHeight    float64 `json:"wave_height"`
			WaveDirection float64 `json:"wave_direction"`
			WavePeriod    float64 `json:"wave_period"`
			SeaTemp       float64 `json:"sea_surface_temperature"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return marine.Observation{}, err
	}

	return marine.Observation{
		WaveHeightM:   payload.Current.WaveHeight,
		WavePeriodS:   payload.Current.WavePeriod,
		WaveDirection: payload.Current.WaveDirection,
		SeaTempC:      payload.Current.SeaTemp,
	}, nil
}
