package traffic

import (
	"fmt"
	"math"

	"github.com/i474232898/city-islands/internal/island"
)

// LevelFromPercent maps a congestion percentage onto a level.
func LevelFromPercent(p float64) island.CongestionLevel {
	switch {
	case p < 25:
		return island.CongestionLow
	case p < 50:
		return island.CongestionMedium
	case p < 75:
		return island.CongestionHigh
	default:
		return island.CongestionSevere
	}
}

// LevelFromSpeedRatio maps current/free-flow speed onto a level.
func LevelFromSpeedRatio(r float64) island.CongestionLevel {
	switch {
	case r >= 0.75:
		return island.CongestionLow
	case r >= 0.5:
		return island.CongestionMedium
	case r >= 0.25:
		return island.CongestionHigh
	default:
		return island.CongestionSevere
	}
}

// StatusFromDelay classifies a route by its delay in minutes.
func StatusFromDelay(minutes int) island.RouteStatus {
	switch {
	case minutes > 20:
		return island.RouteCongested
	case minutes > 10:
		return island.RouteSlow
	default:
		return island.RouteNormal
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

var levelText = map[island.CongestionLevel]string{
	island.CongestionLow:    "Trafik akıcı",
	island.CongestionMedium: "Trafik orta yoğunlukta",
	island.CongestionHigh:   "Trafik yoğun",
	island.CongestionSevere: "Trafik çok yoğun",
}

// Narrate builds the traffic narrative from the record's own fields.
// routes must already be sorted by delay, worst first.
func Narrate(level island.CongestionLevel, percent int, routes []island.RouteDelay) string {
	s := fmt.Sprintf("%s (%%%d).", levelText[level], percent)
	if len(routes) == 0 {
		return s
	}

	worst := routes[0]
	s += fmt.Sprintf(" En yoğun güzergah: %s (%d dk gecikme).", worst.Name, worst.DelayMinutes)

	congested := 0
	for _, r := range routes {
		if r.Status == island.RouteCongested {
			congested++
		}
	}
	if congested == 0 {
		return s + " Tıkanık güzergah yok."
	}
	return s + fmt.Sprintf(" %d güzergahta tıkanıklık var.", congested)
}
