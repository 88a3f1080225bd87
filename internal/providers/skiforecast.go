package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"

	"github.com/i474232898/city-islands/internal/pipeline"
	"github.com/i474232898/city-islands/internal/ski"
)

// ErrEmptyForecast is returned when the proxy answers without forecast days.
var ErrEmptyForecast = errors.New("ski forecast is empty")

// SkiForecastDay is one day of a resort forecast.
type SkiForecastDay struct {
	Date          string  `json:"date"`
	BaseTempC     float64 `json:"baseTempC"`
	PrecipMm      float64 `json:"precipMm"`
	SnowCm        float64 `json:"snowCm"`
	WindKph       float64 `json:"windKph"`
	CloudCoverPct float64 `json:"cloudCoverPct"`
}

// Inputs converts the day into ski engine inputs.
func (d SkiForecastDay) Inputs() ski.Inputs {
	snow := d.SnowCm
	return ski.Inputs{
		CurrentTemp:   d.BaseTempC,
		Precipitation: d.PrecipMm,
		WindSpeed:     d.WindKph,
		CloudCover:    d.CloudCoverPct,
		Snowfall:      &snow,
	}
}

// SkiForecastClient reads resort forecasts from the ski proxy.
// Responses are cached per forecast id.
type SkiForecastClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	cache   *cache.Cache
}

func NewSkiForecastClient(client *http.Client, baseURL string, ttl time.Duration) *SkiForecastClient {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SkiForecastClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("ski-forecast"),
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Configured reports whether a proxy target is set.
func (c *SkiForecastClient) Configured() bool {
	return c.baseURL != ""
}

// Today returns the first forecast day for forecastID.
func (c *SkiForecastClient) Today(ctx context.Context, forecastID int) (SkiForecastDay, error) {
	if !c.Configured() {
		return SkiForecastDay{}, pipeline.ErrNotConfigured
	}

	key := strconv.Itoa(forecastID)
	if v, ok := c.cache.Get(key); ok {
		if day, ok := v.(SkiForecastDay); ok {
			return day, nil
		}
	}

	endpoint := fmt.Sprintf("%s/ski/%d/forecast", c.baseURL, forecastID)
	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, getJSON(endpoint))
	if err != nil {
		return SkiForecastDay{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast []SkiForecastDay `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SkiForecastDay{}, err
	}
	if len(payload.Forecast) == 0 {
		return SkiForecastDay{}, ErrEmptyForecast
	}

	day := payload.Forecast[0]
	c.cache.SetDefault(key, day)
	return day, nil
}
