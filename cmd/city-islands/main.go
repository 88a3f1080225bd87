package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/city-islands/internal/api/http"
	"github.com/i474232898/city-islands/internal/config"
	"github.com/i474232898/city-islands/internal/dashboard"
	"github.com/i474232898/city-islands/internal/geo"
	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/observability"
	"github.com/i474232898/city-islands/internal/providers"
	"github.com/i474232898/city-islands/internal/scheduler"
	"github.com/i474232898/city-islands/internal/store"
	"github.com/i474232898/city-islands/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound adapter calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)

	// Providers with resilience (backoff + circuit breaker). Open-Meteo needs no key.
	provs := []weather.Provider{providers.NewOpenMeteoProvider(httpClient)}
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}

	weatherSvc := weather.NewService(memStore, provs,
		weather.WithClock(clock),
		weather.WithLogger(log),
		weather.WithObserver(metrics),
	)

	directory := island.DefaultDirectory()
	resolver := geo.NewResolver(geo.DefaultHubs())

	opts := []dashboard.Option{
		dashboard.WithClock(clock),
		dashboard.WithLogger(log),
		dashboard.WithMetrics(metrics),
		dashboard.WithFreshness(cfg.WeatherFreshness),
		dashboard.WithMarineFeed(providers.NewMarineClient(httpClient, cfg.MarineBaseURL)),
	}
	tomtom := providers.NewTomTomAdapter(httpClient, providers.TomTomConfig{
		APIKey:        cfg.TomTomAPIKey,
		BaseURL:       cfg.TomTomBaseURL,
		RatePerSecond: cfg.TomTomRatePerSecond,
		Burst:         cfg.TomTomBurst,
	}, clock)
	if tomtom.Configured() {
		opts = append(opts, dashboard.WithTrafficFeed(tomtom))
	} else {
		log.Info("TOMTOM_API_KEY not set; traffic uses the heuristic engine only")
	}
	skiFeed := providers.NewSkiForecastClient(httpClient, cfg.SkiProxyTarget, cfg.AdapterCacheTTL)
	if skiFeed.Configured() {
		opts = append(opts, dashboard.WithSkiFeed(skiFeed))
	}

	svc := dashboard.NewService(directory, resolver, weatherSvc, opts...)
	sessions := dashboard.NewSessions(svc, cfg.SessionTTL)

	var geocoder httpapi.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	// Scheduler that periodically pre-warms weather for the selectable cities.
	sched := scheduler.New(prewarmLocations(directory, cfg.PrewarmCities, log), cfg.FetchInterval, weatherSvc, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "city-islands",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "city-islands",
			"sessions": sessions.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Dashboard: svc,
		Sessions:  sessions,
		History:   weatherSvc,
		Geocoder:  geocoder,
	})

	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}

func prewarmLocations(directory *island.Directory, keys []string, log *slog.Logger) []weather.Location {
	var profiles []island.CityProfile
	if len(keys) == 0 {
		profiles = directory.All()
	}
	for _, k := range keys {
		p, ok := directory.Lookup(k)
		if !ok {
			log.Warn("ignoring unknown PREWARM_CITIES entry", "city", k)
			continue
		}
		profiles = append(profiles, p)
	}

	locs := make([]weather.Location, 0, len(profiles))
	for _, p := range profiles {
		locs = append(locs, weather.ProfileLocation(p))
	}
	return locs
}
