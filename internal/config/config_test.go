package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "HTTP_TIMEOUT", "SHUTDOWN_TIMEOUT",
		"OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "GEOCODER_API_KEY",
		"TOMTOM_API_KEY", "TOMTOM_BASE_URL", "TOMTOM_RATE_PER_SECOND", "TOMTOM_BURST",
		"SKI_PROXY_TARGET", "MARINE_BASE_URL", "FETCH_INTERVAL", "PREWARM_CITIES",
		"STORE_MAX_HISTORY", "STORE_MAX_AGE", "WEATHER_FRESHNESS", "ADAPTER_CACHE_TTL", "SESSION_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "https://api.tomtom.com", cfg.TomTomBaseURL)
	assert.Equal(t, 5.0, cfg.TomTomRatePerSecond)
	assert.Empty(t, cfg.SkiProxyTarget)
	assert.Empty(t, cfg.PrewarmCities)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("TOMTOM_API_KEY", "tt")
	t.Setenv("TOMTOM_RATE_PER_SECOND", "2.5")
	t.Setenv("TOMTOM_BURST", "4")
	t.Setenv("SKI_PROXY_TARGET", "http://proxy.local/")
	t.Setenv("PREWARM_CITIES", " erzurum, bursa ,,antalya")
	t.Setenv("STORE_MAX_HISTORY", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "tt", cfg.TomTomAPIKey)
	assert.Equal(t, 2.5, cfg.TomTomRatePerSecond)
	assert.Equal(t, 4, cfg.TomTomBurst)
	assert.Equal(t, "http://proxy.local", cfg.SkiProxyTarget)
	assert.Equal(t, []string{"erzurum", "bursa", "antalya"}, cfg.PrewarmCities)
	assert.Equal(t, 12, cfg.StoreMaxHistory)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"FETCH_INTERVAL":         "soon",
		"HTTP_TIMEOUT":           "0s",
		"STORE_MAX_HISTORY":      "many",
		"TOMTOM_RATE_PER_SECOND": "-1",
		"LOG_FORMAT":             "xml",
		"SESSION_TTL":            "forever",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
