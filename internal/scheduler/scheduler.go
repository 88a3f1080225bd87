package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/city-islands/internal/weather"
)

// Fetcher refreshes and stores weather for a location.
type Fetcher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Scheduler periodically pre-warms weather data so page refreshes find a
// fresh snapshot.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	locations []weather.Location
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, fetcher Fetcher, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: s,
		fetcher:   fetcher,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce fetches every location concurrently and returns the number of
// failed locations.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	s.logger.Debug("scheduler: running weather fetch job", "locations", len(s.locations))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := s.fetcher.FetchAndStore(ctx, loc); err != nil {
				s.logger.Warn("scheduler: fetch failed", "location", loc.Key(), "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Debug("scheduler: completed weather fetch job", "failed", failed)
	return failed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
