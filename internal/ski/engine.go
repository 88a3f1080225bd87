// Package ski derives resort conditions from weather readings.
package ski

import (
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/city-islands/internal/island"
)

const (
	lapseRatePerKm    = 6.5
	snowToWaterRatio  = 10.0 // mm of snow per mm of water
	minOperatingDepth = 30
)

// Inputs are the weather readings at the resort base.
type Inputs struct {
	CurrentTemp   float64  // °C
	Precipitation float64  // mm over 24h
	WindSpeed     float64  // km/h
	CloudCover    float64  // %
	Snowfall      *float64 // cm over 24h, if known
}

// Engine estimates ski conditions. It is deterministic apart from LastUpdated.
type Engine struct {
	clock clockwork.Clock
}

// NewEngine creates an Engine reading the month from clock.
func NewEngine(clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{clock: clock}
}

// Estimate returns conditions for resortKey, or nil if the resort is unknown.
func (e *Engine) Estimate(resortKey string, in Inputs) *island.SkiEstimate {
	r, ok := LookupResort(resortKey)
	if !ok {
		return nil
	}
	now := e.clock.Now()

	inSeason := r.InSeason(now.Month())
	summit := in.CurrentTemp - lapseRatePerKm*(r.SummitElevation-r.BaseElevation)/1000

	fresh := 0.0
	switch {
	case in.Snowfall != nil && *in.Snowfall > 0:
		fresh = *in.Snowfall
	case summit <= 0:
		fresh = in.Precipitation * snowToWaterRatio / 10
	}
	fresh = math.Round(fresh*10) / 10

	depth := int(math.Round(monthlyAccumulation[now.Month()] + r.ElevationBonus() + fresh))

	cond := condition(inSeason, depth, fresh, in.CurrentTemp)
	vis := visibility(in.CloudCover, in.WindSpeed)

	est := &island.SkiEstimate{
		Resort:      r.Name,
		SnowDepthCm: depth,
		FreshSnowCm: fresh,
		BaseTempC:   in.CurrentTemp,
		SummitTempC: math.Round(summit*10) / 10,
		LiftsOpen:   liftsOpen(r.Lifts, cond, depth, in.WindSpeed, vis),
		LiftsTotal:  r.Lifts,
		Avalanche:   avalancheRisk(fresh, in.WindSpeed, summit),
		Condition:   cond,
		Visibility:  vis,
		InSeason:    inSeason,
		LastUpdated: now.UTC(),
	}
	est.Narrative = Narrate(est)
	return est
}

func condition(inSeason bool, depth int, fresh, baseTemp float64) island.SnowCondition {
	switch {
	case !inSeason || depth < minOperatingDepth:
		return island.SnowClosed
	case fresh >= 10:
		return island.SnowPowder
	case baseTemp > 2:
		return island.SnowWet
	case baseTemp < -10 && fresh < 1:
		return island.SnowIcy
	default:
		return island.SnowPacked
	}
}

func avalancheRisk(fresh, wind, summit float64) island.AvalancheRisk {
	score := 0
	switch {
	case fresh >= 30:
		score += 3
	case fresh >= 20:
		score += 2
	case fresh >= 10:
		score++
	}
	switch {
	case wind >= 50:
		score += 2
	case wind >= 30:
		score++
	}
	if summit >= -2 && summit <= 2 {
		score++
	}

	switch {
	case score >= 6:
		return island.AvalancheHigh
	case score >= 4:
		return island.AvalancheConsiderable
	case score >= 2:
		return island.AvalancheModerate
	default:
		return island.AvalancheLow
	}
}

func visibility(cloud, wind float64) island.Visibility {
	switch {
	case cloud >= 90 || wind >= 60:
		return island.VisibilityPoor
	case cloud >= 60 || wind >= 40:
		return island.VisibilityModerate
	default:
		return island.VisibilityGood
	}
}

func liftsOpen(total int, cond island.SnowCondition, depth int, wind float64, vis island.Visibility) int {
	if cond == island.SnowClosed {
		return 0
	}

	factor := 1.0
	switch {
	case depth < 50:
		factor *= 0.5
	case depth < 80:
		factor *= 0.75
	}
	switch {
	case wind >= 60:
		factor *= 0.3
	case wind >= 40:
		factor *= 0.6
	}
	switch vis {
	case island.VisibilityPoor:
		factor *= 0.7
	case island.VisibilityModerate:
		factor *= 0.9
	}

	open := int(math.Round(float64(total) * factor))
	return max(1, min(open, total))
}

var conditionText = map[island.SnowCondition]string{
	island.SnowClosed: "Tesis şu an kapalı",
	island.SnowPowder: "Taze toz kar",
	island.SnowPacked: "Sıkıştırılmış pist",
	island.SnowWet:    "Islak kar",
	island.SnowIcy:    "Buzlu pist",
}

var avalancheText = map[island.AvalancheRisk]string{
	island.AvalancheLow:          "Çığ riski düşük.",
	island.AvalancheModerate:     "Çığ riski orta.",
	island.AvalancheConsiderable: "Çığ riski belirgin.",
	island.AvalancheHigh:         "Çığ riski yüksek!",
}

// Narrate builds the ski narrative from the record's own fields.
func Narrate(s *island.SkiEstimate) string {
	out := fmt.Sprintf("%s: %s. Kar kalınlığı %d cm", s.Resort, conditionText[s.Condition], s.SnowDepthCm)
	if s.FreshSnowCm > 0 {
		out += fmt.Sprintf(", son 24 saatte %.0f cm taze kar", s.FreshSnowCm)
	}
	out += ". " + avalancheText[s.Avalanche]
	if s.LiftsOpen == 0 {
		return out + " Tüm liftler kapalı."
	}
	return out + fmt.Sprintf(" %d/%d lift açık.", s.LiftsOpen, s.LiftsTotal)
}
