package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/pipeline"
	"github.com/i474232898/city-islands/internal/traffic"
)

// ErrNoTrafficData is returned when no monitoring point produced a reading.
var ErrNoTrafficData = errors.New("no traffic data")

const maxReportedRoutes = 6

// TomTomConfig configures the flow-segment adapter.
type TomTomConfig struct {
	APIKey        string
	BaseURL       string
	RatePerSecond float64
	Burst         int
	// MaxConcurrent bounds in-flight point requests per city.
	MaxConcurrent int
}

// TomTomAdapter reads live flow data for cities with monitoring points.
type TomTomAdapter struct {
	cfg     TomTomConfig
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	clock   clockwork.Clock
}

func NewTomTomAdapter(client *http.Client, cfg TomTomConfig, clock clockwork.Clock) *TomTomAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tomtom.com"
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TomTomAdapter{
		cfg:     cfg,
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("tomtom"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		clock:   clock,
	}
}

// Configured reports whether an API key is present.
func (a *TomTomAdapter) Configured() bool {
	return a.cfg.APIKey != ""
}

type flowSegment struct {
	CurrentSpeed       float64 `json:"currentSpeed"`
	FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
	CurrentTravelTime  float64 `json:"currentTravelTime"`
	FreeFlowTravelTime float64 `json:"freeFlowTravelTime"`
	RoadClosure        bool    `json:"roadClosure"`
}

type pointReading struct {
	name    string
	segment flowSegment
}

// Fetch builds a traffic record for city from every monitoring point that
// answers. A city without monitoring points or with no answering point is an
// error, never a partial record.
func (a *TomTomAdapter) Fetch(ctx context.Context, city string) (*island.TrafficEstimate, error) {
	if !a.Configured() {
		return nil, pipeline.ErrNotConfigured
	}
	points := traffic.MonitoringPoints(city)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s has no monitoring points", ErrNoTrafficData, city)
	}

	var (
		mu       sync.Mutex
		readings []pointReading
		lastErr  error
	)

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrent)
	for _, p := range points {
		g.Go(func() error {
			seg, err := a.fetchPoint(ctx, p.Coordinate)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return nil
			}
			readings = append(readings, pointReading{name: p.Name, segment: seg})
			return nil
		})
	}
	_ = g.Wait()

	if len(readings) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoTrafficData, lastErr)
		}
		return nil, ErrNoTrafficData
	}

	return a.build(city, readings), nil
}

func (a *TomTomAdapter) fetchPoint(ctx context.Context, c island.Coordinate) (flowSegment, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return flowSegment{}, err
	}

	values := url.Values{}
	values.Set("key", a.cfg.APIKey)
	values.Set("point", formatPoint(c))
	values.Set("unit", "KMPH")
	endpoint := a.cfg.BaseURL + "/traffic/services/4/flowSegmentData/absolute/10/json?" + values.Encode()

	resp, err := doRequestWithResilience(ctx, a.httpCfg, a.circuit, getJSON(endpoint))
	if err != nil {
		return flowSegment{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		FlowSegmentData flowSegment `json:"flowSegmentData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return flowSegment{}, err
	}
	if payload.FlowSegmentData.FreeFlowSpeed <= 0 {
		return flowSegment{}, fmt.Errorf("tomtom: missing free flow speed")
	}
	return payload.FlowSegmentData, nil
}

func (a *TomTomAdapter) build(city string, readings []pointReading) *island.TrafficEstimate {
	var current, free float64
	routes := make([]island.RouteDelay, 0, len(readings))
	for _, r := range readings {
		current += r.segment.CurrentSpeed
		free += r.segment.FreeFlowSpeed

		delay := int(math.Round(math.Max(0, r.segment.CurrentTravelTime-r.segment.FreeFlowTravelTime) / 60))
		status := traffic.StatusFromDelay(delay)
		if r.segment.RoadClosure {
			status = island.RouteCongested
		}
		routes = append(routes, island.RouteDelay{Name: r.name, DelayMinutes: delay, Status: status})
	}

	ratio := current / free
	percent := int(math.Max(0, math.Min(100, math.Round((1-ratio)*100))))
	level := traffic.LevelFromSpeedRatio(ratio)

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].DelayMinutes > routes[j].DelayMinutes
	})
	if len(routes) > maxReportedRoutes {
		routes = routes[:maxReportedRoutes]
	}

	est := &island.TrafficEstimate{
		City:              island.NormalizeKey(city),
		Level:             level,
		CongestionPercent: percent,
		Routes:            routes,
		LastUpdated:       a.clock.Now().UTC(),
	}
	est.Narrative = traffic.Narrate(level, percent, routes)
	return est
}

func formatPoint(c island.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}
