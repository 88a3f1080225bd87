package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrNoReadings is returned when every provider failed for a location.
var ErrNoReadings = errors.New("no successful provider readings")

// ProviderObserver is notified of each provider call; metrics implement it.
type ProviderObserver interface {
	ObserveProvider(provider string, d time.Duration, err error)
}

// Service orchestrates fetching from multiple providers and persisting snapshots.
type Service struct {
	store     Store
	providers []Provider
	clock     clockwork.Clock
	logger    *slog.Logger
	observer  ProviderObserver
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithObserver sets the provider call observer.
func WithObserver(o ProviderObserver) Option {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		providers: providers,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAndStore fetches data from all providers concurrently for the given location,
// aggregates successful readings, and stores a snapshot. When every provider fails the
// last good snapshot is kept and ErrNoReadings is returned.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	if len(s.providers) == 0 {
		return fmt.Errorf("no weather providers configured")
	}

	for _, p := range s.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := s.clock.Now()
			r, err := p.Fetch(ctx, loc)
			if s.observer != nil {
				s.observer.ObserveProvider(p.Name(), s.clock.Since(start), err)
			}
			if err != nil {
				// Partial success is fine.
				s.logger.Warn("provider fetch failed",
					"provider", p.Name(),
					"location", loc.Key(),
					"error", err,
				)
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		s.logger.Warn("no successful provider readings; keeping last good snapshot", "location", loc.Key())
		return ErrNoReadings
	}

	snapshot := AggregateReadings(loc, readings, s.clock.Now())
	s.store.SaveSnapshot(loc, snapshot)
	s.logger.Debug("stored weather snapshot", "location", loc.Key(), "providers", len(readings))
	return nil
}

// Current returns the latest snapshot for loc, refreshing it from the providers
// first when it is older than maxAge or missing.
func (s *Service) Current(ctx context.Context, loc Location, maxAge time.Duration) (WeatherSnapshot, error) {
	if snap, err := s.store.GetLatest(loc); err == nil && s.clock.Since(snap.Timestamp) <= maxAge {
		return snap, nil
	}

	if err := s.FetchAndStore(ctx, loc); err != nil {
		// A stale snapshot beats nothing.
		if snap, getErr := s.store.GetLatest(loc); getErr == nil {
			s.logger.Info("serving stale weather snapshot", "location", loc.Key(), "error", err)
			return snap, nil
		}
		return WeatherSnapshot{}, fmt.Errorf("refresh weather for %s: %w", loc.Key(), err)
	}
	return s.store.GetLatest(loc)
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (WeatherSnapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error) {
	return s.store.GetRange(loc, from, to)
}
