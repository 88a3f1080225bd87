package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i474232898/city-islands/internal/geo"
	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/marine"
	"github.com/i474232898/city-islands/internal/observability"
	"github.com/i474232898/city-islands/internal/pipeline"
	"github.com/i474232898/city-islands/internal/providers"
	"github.com/i474232898/city-islands/internal/ski"
	"github.com/i474232898/city-islands/internal/traffic"
	"github.com/i474232898/city-islands/internal/weather"
)

// WeatherSource supplies the weather inputs of a refresh.
type WeatherSource interface {
	Current(ctx context.Context, loc weather.Location, maxAge time.Duration) (weather.WeatherSnapshot, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error)
}

// TrafficFeed reads live traffic for a city.
type TrafficFeed interface {
	Fetch(ctx context.Context, city string) (*island.TrafficEstimate, error)
}

// SkiFeed reads today's resort forecast.
type SkiFeed interface {
	Today(ctx context.Context, forecastID int) (providers.SkiForecastDay, error)
}

// MarineFeed reads observed sea conditions.
type MarineFeed interface {
	Observe(ctx context.Context, c island.Coordinate) (marine.Observation, error)
}

const (
	defaultFreshness = 10 * time.Minute
	historyWindow    = 24 * time.Hour
	// rainThresholdMm is the hourly precipitation treated as wet roads.
	rainThresholdMm = 0.2
)

// Service computes the widgets of a city.
type Service struct {
	directory *island.Directory
	resolver  *geo.Resolver
	weather   WeatherSource

	traffic *traffic.Engine
	ski     *ski.Engine
	marine  *marine.Estimator

	trafficFeed TrafficFeed
	skiFeed     SkiFeed
	marineFeed  MarineFeed

	clock     clockwork.Clock
	rng       traffic.Source
	logger    *slog.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	freshness time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithTrafficFeed(f TrafficFeed) Option { return func(s *Service) { s.trafficFeed = f } }
func WithSkiFeed(f SkiFeed) Option         { return func(s *Service) { s.skiFeed = f } }
func WithMarineFeed(f MarineFeed) Option   { return func(s *Service) { s.marineFeed = f } }

// WithClock sets the time source of the service and its engines.
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

// WithRandom sets the noise source of the traffic engine.
func WithRandom(r traffic.Source) Option { return func(s *Service) { s.rng = r } }

func WithLogger(l *slog.Logger) Option            { return func(s *Service) { s.logger = l } }
func WithMetrics(m *observability.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithTracer(t trace.Tracer) Option            { return func(s *Service) { s.tracer = t } }
func WithFreshness(d time.Duration) Option        { return func(s *Service) { s.freshness = d } }

// NewService creates a Service. Remote feeds are optional; without them every
// widget is computed by its heuristic engine.
func NewService(directory *island.Directory, resolver *geo.Resolver, ws WeatherSource, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		resolver:  resolver,
		weather:   ws,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/i474232898/city-islands/internal/dashboard"),
		freshness: defaultFreshness,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(s.clock.Now().UnixNano()), 0x15a4d))
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	s.traffic = traffic.NewEngine(s.clock, s.rng)
	s.ski = ski.NewEngine(s.clock)
	s.marine = marine.NewEstimator(s.clock)
	return s
}

// Directory returns the city profiles served.
func (s *Service) Directory() *island.Directory { return s.directory }

// Resolver returns the hub resolver.
func (s *Service) Resolver() *geo.Resolver { return s.resolver }

// Refresh computes every widget for cityKey. Widget failures never fail the
// refresh; only an unknown city does.
func (s *Service) Refresh(ctx context.Context, cityKey string) (*Islands, error) {
	p, ok := s.directory.Lookup(cityKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, cityKey)
	}
	return s.refresh(ctx, p, 0), nil
}

// inputs are shared by the widgets of one cycle.
type inputs struct {
	profile island.CityProfile
	loc     weather.Location
	// snapshot is nil when no weather could be obtained.
	snapshot *weather.WeatherSnapshot
}

func (s *Service) refresh(ctx context.Context, p island.CityProfile, cycle uint64) *Islands {
	ctx, span := s.tracer.Start(ctx, "dashboard.refresh", trace.WithAttributes(
		attribute.String("city", p.Key),
		attribute.Int64("cycle", int64(cycle)),
	))
	defer span.End()

	s.metrics.RefreshCycles.Inc()
	in := s.loadInputs(ctx, p)
	if in.snapshot == nil {
		span.SetStatus(codes.Error, "weather unavailable")
	}

	kinds := Kinds()
	widgets := make([]WidgetState, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			widgets[i] = s.computeWidget(ctx, kind, in)
		}()
	}
	wg.Wait()

	failed := 0
	for _, w := range widgets {
		if w.Status == StatusFailed {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("widgets.failed", failed))

	return &Islands{
		City:      p,
		Cycle:     cycle,
		Widgets:   widgets,
		UpdatedAt: s.clock.Now().UTC(),
	}
}

func (s *Service) loadInputs(ctx context.Context, p island.CityProfile) inputs {
	in := inputs{profile: p, loc: weather.ProfileLocation(p)}
	if s.weather == nil {
		return in
	}
	snap, err := s.weather.Current(ctx, in.loc, s.freshness)
	if err != nil {
		s.logger.Warn("weather unavailable for refresh", "city", p.Key, "error", err)
		return in
	}
	in.snapshot = &snap
	return in
}

func (s *Service) computeWidget(ctx context.Context, kind WidgetKind, in inputs) WidgetState {
	ctx, span := s.tracer.Start(ctx, "dashboard.widget", trace.WithAttributes(attribute.String("widget", string(kind))))
	defer span.End()

	st := boundary(s.logger.With("city", in.profile.Key), kind, func() (computed, error) {
		switch kind {
		case KindTraffic:
			return s.computeTraffic(ctx, in)
		case KindMarine:
			return s.computeMarine(ctx, in)
		case KindSki:
			return s.computeSki(ctx, in)
		case KindSummary:
			return s.computeSummary(in)
		default:
			return computed{}, fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
		}
	})

	s.metrics.WidgetOutcomes.WithLabelValues(string(kind), string(st.Source)).Inc()
	if st.Status == StatusFailed {
		s.metrics.WidgetFailures.WithLabelValues(string(kind)).Inc()
		span.SetStatus(codes.Error, "widget failed")
	}
	span.SetAttributes(attribute.String("widget.status", string(st.Status)))
	return st
}

// timed wraps a remote stage with duration metrics and error logging.
func timed[T any](s *Service, adapter string, remote pipeline.Remote[T]) pipeline.Remote[T] {
	return func(ctx context.Context) (*T, error) {
		start := s.clock.Now()
		v, err := remote(ctx)
		s.metrics.AdapterDuration.WithLabelValues(adapter).Observe(s.clock.Since(start).Seconds())
		if err != nil && !errors.Is(err, pipeline.ErrNotConfigured) {
			s.logger.Info("remote stage failed, using heuristic", "adapter", adapter, "error", err)
		}
		return v, err
	}
}

func (s *Service) computeTraffic(ctx context.Context, in inputs) (computed, error) {
	m, ok := s.resolver.Resolve(in.profile.Coordinate, island.CapabilityTraffic)
	if !ok {
		return computed{}, nil
	}

	var remote pipeline.Remote[island.TrafficEstimate]
	if s.trafficFeed != nil && traffic.HasMonitoring(in.profile.Key) {
		remote = timed(s, "tomtom", func(ctx context.Context) (*island.TrafficEstimate, error) {
			return s.trafficFeed.Fetch(ctx, in.profile.Name)
		})
	}

	conds := traffic.Conditions{}
	if in.snapshot != nil {
		conds.Rain = in.snapshot.Condition.Wet() || in.snapshot.PrecipMM > rainThresholdMm
	}

	out, err := pipeline.Run(ctx, remote, func() (*island.TrafficEstimate, error) {
		return s.traffic.Estimate(in.profile.Name, conds), nil
	})
	if err != nil {
		return computed{}, err
	}
	c := computed{hub: m.Hub.Name, stage: out.Stage}
	if out.Value != nil {
		c.record = out.Value
	}
	return c, nil
}

func (s *Service) computeMarine(ctx context.Context, in inputs) (computed, error) {
	m, ok := s.resolver.Resolve(in.profile.Coordinate, island.CapabilityMarine)
	if !ok {
		return computed{}, nil
	}
	hub := m.Hub

	wind := 0.0
	if in.snapshot != nil {
		wind = in.snapshot.WindKph()
	}

	var remote pipeline.Remote[island.MarineEstimate]
	if s.marineFeed != nil {
		remote = timed(s, "marine", func(ctx context.Context) (*island.MarineEstimate, error) {
			obs, err := s.marineFeed.Observe(ctx, hub.Coordinate)
			if err != nil {
				return nil, err
			}
			obs.WindKph = wind
			return s.marine.FromObservation(hub.Name, obs), nil
		})
	}

	out, err := pipeline.Run(ctx, remote, func() (*island.MarineEstimate, error) {
		if in.snapshot == nil {
			return nil, errNoWeather
		}
		return s.marine.Estimate(hub.ID, hub.Name, wind), nil
	})
	if err != nil {
		return computed{}, err
	}
	c := computed{hub: hub.Name, stage: out.Stage}
	if out.Value != nil {
		c.record = out.Value
	}
	return c, nil
}

func (s *Service) computeSki(ctx context.Context, in inputs) (computed, error) {
	m, ok := s.resolver.Resolve(in.profile.Coordinate, island.CapabilitySki)
	if !ok {
		return computed{}, nil
	}
	resort, ok := ski.ResortForHub(m.Hub.ID)
	if !ok {
		return computed{}, nil
	}

	var remote pipeline.Remote[island.SkiEstimate]
	if s.skiFeed != nil {
		remote = timed(s, "ski-forecast", func(ctx context.Context) (*island.SkiEstimate, error) {
			day, err := s.skiFeed.Today(ctx, resort.ForecastID)
			if err != nil {
				return nil, err
			}
			return s.ski.Estimate(resort.Key, day.Inputs()), nil
		})
	}

	out, err := pipeline.Run(ctx, remote, func() (*island.SkiEstimate, error) {
		if in.snapshot == nil {
			return nil, errNoWeather
		}
		return s.ski.Estimate(resort.Key, skiInputs(*in.snapshot)), nil
	})
	if err != nil {
		return computed{}, err
	}
	c := computed{hub: m.Hub.Name, stage: out.Stage}
	if out.Value != nil {
		c.record = out.Value
	}
	return c, nil
}

// skiInputs prefers day totals and falls back to the latest hourly values
// when no provider reported them.
func skiInputs(snap weather.WeatherSnapshot) ski.Inputs {
	in := ski.Inputs{
		CurrentTemp:   snap.Temperature,
		Precipitation: snap.PrecipMM,
		WindSpeed:     snap.WindKph(),
		CloudCover:    snap.CloudCover,
	}
	if snap.DailyPrecipMM != nil {
		in.Precipitation = *snap.DailyPrecipMM
	}
	switch {
	case snap.DailySnowCM != nil:
		snow := *snap.DailySnowCM
		in.Snowfall = &snow
	case snap.SnowCM > 0:
		snow := snap.SnowCM
		in.Snowfall = &snow
	}
	return in
}

func (s *Service) computeSummary(in inputs) (computed, error) {
	if in.snapshot == nil {
		return computed{}, errNoWeather
	}
	now := s.clock.Now()

	history, err := s.weather.GetRange(in.loc, now.Add(-historyWindow), now)
	if err != nil {
		history = nil
	}

	matches := s.resolver.ResolveAll(in.profile.Coordinate)
	var hubs []string
	for _, c := range island.Capabilities() {
		if m, ok := matches[c]; ok && !slices.Contains(hubs, m.Hub.Name) {
			hubs = append(hubs, m.Hub.Name)
		}
	}

	return computed{
		stage:  pipeline.StageRemote,
		record: weather.Summarize(in.profile.Name, *in.snapshot, history, hubs, now),
	}, nil
}

// EstimateTraffic runs the traffic engine directly.
func (s *Service) EstimateTraffic(city string, c traffic.Conditions) *island.TrafficEstimate {
	return s.traffic.Estimate(city, c)
}

// EstimateSki runs the ski engine directly. It returns nil for an unknown resort.
func (s *Service) EstimateSki(resort string, in ski.Inputs) *island.SkiEstimate {
	return s.ski.Estimate(resort, in)
}
