package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-islands/internal/dashboard"
	"github.com/i474232898/city-islands/internal/geo"
	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/observability"
	"github.com/i474232898/city-islands/internal/store"
	"github.com/i474232898/city-islands/internal/weather"
)

var now = time.Date(2026, time.January, 15, 7, 0, 0, 0, time.UTC)

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

type snowyProvider struct{}

func (snowyProvider) Name() string { return "fake" }

func (snowyProvider) Fetch(context.Context, weather.Location) (weather.ProviderReading, error) {
	return weather.ProviderReading{
		ProviderName: "fake",
		Timestamp:    now,
		TemperatureC: -5,
		PrecipMm:     10,
		WindSpeedMS:  20 / 3.6,
		CloudPct:     40,
		Condition:    weather.ConditionSnow,
	}, nil
}

type stubGeocoder struct {
	p   island.Coordinate
	err error
}

func (stubGeocoder) Configured() bool { return true }

func (g stubGeocoder) Geocode(context.Context, string, string) (island.Coordinate, error) {
	return g.p, g.err
}

func newTestApp(t *testing.T, geocoder Geocoder) *fiber.App {
	t.Helper()

	clock := clockwork.NewFakeClockAt(now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memStore := store.NewMemoryStore(10, 24*time.Hour, clock)
	ws := weather.NewService(memStore, []weather.Provider{snowyProvider{}},
		weather.WithClock(clock), weather.WithLogger(logger))

	svc := dashboard.NewService(island.DefaultDirectory(), geo.NewResolver(geo.DefaultHubs()), ws,
		dashboard.WithClock(clock),
		dashboard.WithRandom(constSource(0.5)),
		dashboard.WithLogger(logger),
		dashboard.WithMetrics(observability.NewMetricsForTesting()),
	)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Deps{
		Dashboard: svc,
		Sessions:  dashboard.NewSessions(svc, time.Minute),
		History:   ws,
		Geocoder:  geocoder,
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestCities(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cities", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var cities []island.CityProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cities))
	assert.Len(t, cities, len(island.DefaultDirectory().All()))
	assert.Equal(t, "istanbul", cities[0].Key)
}

func TestIslands_Erzurum(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, http.MethodGet, "/api/v1/cities/erzurum/islands", nil)
	require.Equal(t, http.StatusOK, code)

	widgets := body["widgets"].([]any)
	require.Len(t, widgets, 4)

	byKind := map[string]map[string]any{}
	for _, w := range widgets {
		m := w.(map[string]any)
		byKind[m["kind"].(string)] = m
	}
	assert.Equal(t, "ok", byKind["ski"]["status"])
	assert.Equal(t, "inactive", byKind["traffic"]["status"])
	assert.Equal(t, "inactive", byKind["marine"]["status"])

	data := byKind["ski"]["data"].(map[string]any)
	assert.Equal(t, "Palandöken", data["resort"])
	assert.Equal(t, 288.0, data["snowDepth"])
}

func TestIslands_UnknownCity(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, http.MethodGet, "/api/v1/cities/atlantis/islands", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, true, body["error"])
}

func TestResolveHub(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, http.MethodGet, "/api/v1/hubs/resolve?lat=41.0201&lon=40.5234&capability=marine", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["matched"])
	hub := body["match"].(map[string]any)["hub"].(map[string]any)
	assert.Equal(t, "trabzon", hub["id"])

	code, body = do(t, app, http.MethodGet, "/api/v1/hubs/resolve?lat=38.5012&lon=43.3730&capability=traffic", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["matched"])

	code, _ = do(t, app, http.MethodGet, "/api/v1/hubs/resolve?lat=41&lon=29&capability=weather", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/hubs/resolve?lon=29", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/hubs/resolve?lat=95&lon=29", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTrafficMonitoring(t *testing.T) {
	app := newTestApp(t, nil)

	for _, city := range []string{"İstanbul", "istanbul", "ISTANBUL"} {
		code, body := do(t, app, http.MethodGet, "/api/v1/traffic/monitoring?city="+url.QueryEscape(city), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["monitored"], city)
	}

	code, body := do(t, app, http.MethodGet, "/api/v1/traffic/monitoring?city=Erzurum", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["monitored"])
}

func TestTrafficEstimate(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, http.MethodGet, "/api/v1/traffic/estimate?city=ankara&hour=12", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 39.0, body["congestionPercent"])

	code, body = do(t, app, http.MethodGet, "/api/v1/traffic/estimate?city=ankara&hour=12&rain=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 51.0, body["congestionPercent"])

	code, _ = do(t, app, http.MethodGet, "/api/v1/traffic/estimate?city=ankara&hour=24", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/traffic/estimate", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSkiEstimate(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, http.MethodGet, "/api/v1/ski/estimate?resort=palandoken&temp=-5&precip=10&wind=20&cloud=40", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 288.0, body["snowDepth"])
	assert.Equal(t, "powder", body["snowCondition"])

	code, _ = do(t, app, http.MethodGet, "/api/v1/ski/estimate?resort=zermatt", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/ski/estimate?resort=uludag&cloud=140", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	for _, q := range []string{"precip=Inf", "wind=Inf", "snowfall=Inf", "precip=NaN"} {
		code, body := do(t, app, http.MethodGet, "/api/v1/ski/estimate?resort=uludag&"+q, nil)
		assert.Equal(t, http.StatusBadRequest, code, q)
		assert.Equal(t, true, body["error"], q)
	}
}

func TestGeocode(t *testing.T) {
	code, body := do(t, newTestApp(t, nil), http.MethodGet, "/api/v1/geocode?city=Rize", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, true, body["error"])

	app := newTestApp(t, stubGeocoder{p: island.Coordinate{Lat: 41.0201, Lon: 40.5234}})
	code, body = do(t, app, http.MethodGet, "/api/v1/geocode?city=Rize", nil)
	require.Equal(t, http.StatusOK, code)
	matches := body["matches"].(map[string]any)
	assert.Contains(t, matches, "marine")

	app = newTestApp(t, stubGeocoder{err: errors.New("quota")})
	code, _ = do(t, app, http.MethodGet, "/api/v1/geocode?city=Rize", nil)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestSessionsFlow(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)
	require.NotEmpty(t, id)

	code, _ = do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/widgets/ski/retry", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = do(t, app, http.MethodPut, "/api/v1/sessions/"+id+"/city", map[string]string{"city": "erzurum"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["cycle"])

	code, body = do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/widgets/ski/retry", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/widgets/weather/retry", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, app, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "erzurum", body["city"])

	code, _ = do(t, app, http.MethodPut, "/api/v1/sessions/"+id+"/city", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWeatherHistory(t *testing.T) {
	app := newTestApp(t, nil)

	code, _ := do(t, app, http.MethodGet, "/api/v1/weather/history?city=erzurum&from=2026-01-14T00:00:00Z&to=2026-01-16T00:00:00Z", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/cities/erzurum/islands", nil)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, app, http.MethodGet, "/api/v1/weather/history?city=erzurum&from=2026-01-14T00:00:00Z&to=2026-01-16T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["snapshots"], 1)

	code, _ = do(t, app, http.MethodGet, "/api/v1/weather/history?city=erzurum&from=2026-01-16T00:00:00Z&to=2026-01-14T00:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/weather/history?city=erzurum", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPage(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?city=erzurum", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	html, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Palandöken")
	assert.Contains(t, string(html), "island-ski")
	assert.NotContains(t, string(html), "island-traffic")
}
