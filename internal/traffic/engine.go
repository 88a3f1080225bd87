// Package traffic estimates city congestion from time-of-day curves.
package traffic

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/city-islands/internal/island"
)

// Turkey observes UTC+3 all year.
var turkeyTime = time.FixedZone("TRT", 3*60*60)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Conditions are the external inputs to an estimate.
type Conditions struct {
	Rain    bool
	Holiday bool
	// Hour overrides the clock's local hour when set.
	Hour *int
}

// Engine produces heuristic traffic estimates.
type Engine struct {
	clock clockwork.Clock

	mu  sync.Mutex
	rng Source
}

// NewEngine creates an Engine drawing noise from rng.
func NewEngine(clock clockwork.Clock, rng Source) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{clock: clock, rng: rng}
}

func (e *Engine) noise() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// Estimate computes a congestion estimate for city. Unknown cities use a
// default calibration factor and generic routes.
func (e *Engine) Estimate(city string, c Conditions) *island.TrafficEstimate {
	now := e.clock.Now()
	local := now.In(turkeyTime)

	hour := local.Hour()
	if c.Hour != nil {
		hour = ((*c.Hour % 24) + 24) % 24
	}

	curve := weekdayCurve
	if c.Holiday || local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		curve = weekendCurve
	}

	value := curve[hour] * cityFactor(city)
	if c.Rain {
		value *= rainMultiplier
	}
	value += e.noise()*20 - 10
	value = clamp(value, 0, 100)

	names := routesFor(city)
	routes := make([]island.RouteDelay, 0, len(names))
	for _, name := range names {
		// Routes mostly run lighter than the city-wide figure.
		v := clamp(value+e.noise()*30-20, 0, 100)
		delay := int(math.Round(v / 100 * maxRouteDelayMin))
		routes = append(routes, island.RouteDelay{
			Name:         name,
			DelayMinutes: delay,
			Status:       StatusFromDelay(delay),
		})
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].DelayMinutes > routes[j].DelayMinutes
	})

	percent := int(math.Round(value))
	level := LevelFromPercent(float64(percent))

	return &island.TrafficEstimate{
		City:              island.NormalizeKey(city),
		Level:             level,
		CongestionPercent: percent,
		Routes:            routes,
		Narrative:         Narrate(level, percent, routes),
		LastUpdated:       now.UTC(),
	}
}
