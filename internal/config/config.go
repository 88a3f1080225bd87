package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// HTTPTimeout bounds every outbound adapter request.
	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	TomTomAPIKey        string
	TomTomBaseURL       string
	TomTomRatePerSecond float64
	TomTomBurst         int

	// SkiProxyTarget is the base URL of the ski forecast proxy. Empty disables
	// the remote ski stage.
	SkiProxyTarget string
	MarineBaseURL  string

	// FetchInterval controls how often the scheduler pre-warms weather.
	FetchInterval time.Duration
	// PrewarmCities lists city keys to pre-warm; empty means every profile.
	PrewarmCities []string

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// WeatherFreshness is how old a snapshot may be before a page refresh
	// fetches a new one.
	WeatherFreshness time.Duration
	AdapterCacheTTL  time.Duration
	SessionTTL       time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &AppConfig{
		Port:      getenvDefault("PORT", "8080"),
		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),

		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),

		TomTomAPIKey:  os.Getenv("TOMTOM_API_KEY"),
		TomTomBaseURL: getenvDefault("TOMTOM_BASE_URL", "https://api.tomtom.com"),

		SkiProxyTarget: strings.TrimRight(os.Getenv("SKI_PROXY_TARGET"), "/"),
		MarineBaseURL:  getenvDefault("MARINE_BASE_URL", "https://marine-api.open-meteo.com"),

		PrewarmCities: splitList(os.Getenv("PREWARM_CITIES")),
	}

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
		{"FETCH_INTERVAL", "15m", &cfg.FetchInterval},
		{"STORE_MAX_AGE", "24h", &cfg.StoreMaxAge},
		{"WEATHER_FRESHNESS", "10m", &cfg.WeatherFreshness},
		{"ADAPTER_CACHE_TTL", "10m", &cfg.AdapterCacheTTL},
		{"SESSION_TTL", "30m", &cfg.SessionTTL},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT must be positive")
	}

	// roughly 24h at 15-minute intervals
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}
	if cfg.TomTomBurst, err = getenvInt("TOMTOM_BURST", 2); err != nil {
		return nil, err
	}
	if cfg.TomTomRatePerSecond, err = getenvFloat("TOMTOM_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}
	if cfg.TomTomRatePerSecond <= 0 {
		return nil, errors.New("TOMTOM_RATE_PER_SECOND must be positive")
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
