package weather

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/i474232898/city-islands/internal/island"
)

var conditionText = map[Condition]string{
	ConditionUnknown: "belirsiz",
	ConditionClear:   "açık",
	ConditionCloudy:  "bulutlu",
	ConditionRain:    "yağmurlu",
	ConditionSnow:    "karlı",
	ConditionStorm:   "fırtınalı",
	ConditionMist:    "sisli",
}

// Summarize builds the regional summary record for a city from its latest
// snapshot and the retained history (oldest first). hubs lists the names of
// the hubs serving the city.
func Summarize(city string, latest WeatherSnapshot, history []WeatherSnapshot, hubs []string, now time.Time) *island.SummaryEstimate {
	trend := 0.0
	if len(history) > 0 {
		trend = latest.Temperature - history[0].Temperature
	}

	providers := make([]string, 0, len(latest.Providers))
	for _, p := range latest.Providers {
		providers = append(providers, p.ProviderName)
	}

	s := &island.SummaryEstimate{
		City:         city,
		TemperatureC: round1(latest.Temperature),
		Condition:    string(latest.Condition),
		WindKph:      round1(latest.WindKph()),
		PrecipMm:     round1(latest.PrecipMM),
		CloudPct:     math.Round(latest.CloudCover),
		TrendC:       round1(trend),
		Providers:    providers,
		Hubs:         append([]string(nil), hubs...),
		LastUpdated:  now.UTC(),
	}
	s.Narrative = NarrateSummary(s)
	return s
}

// NarrateSummary builds the summary narrative from the record's own fields.
func NarrateSummary(s *island.SummaryEstimate) string {
	text, ok := conditionText[Condition(s.Condition)]
	if !ok {
		text = conditionText[ConditionUnknown]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %.0f°C, %s. Rüzgar %.0f km/s", s.City, s.TemperatureC, text, s.WindKph)
	if s.PrecipMm > 0 {
		fmt.Fprintf(&b, ", yağış %.1f mm", s.PrecipMm)
	}
	b.WriteString(".")

	if math.Abs(s.TrendC) >= 1 {
		fmt.Fprintf(&b, " Sıcaklık son ölçümlere göre %+.0f°C değişti.", s.TrendC)
	}
	if len(s.Hubs) == 0 {
		b.WriteString(" Bu bölgede ek modül yok.")
	} else {
		fmt.Fprintf(&b, " Hizmet veren merkezler: %s.", strings.Join(s.Hubs, ", "))
	}
	return b.String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
