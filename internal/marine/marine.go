// Package marine normalizes sea observations and estimates them from wind when no
// observation is available.
package marine

import (
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/city-islands/internal/island"
)

type basin struct {
	name  string
	fetch float64
	// monthly sea surface temperature, January first
	sst [12]float64
}

var (
	marmara       = basin{name: "Marmara", fetch: 0.4, sst: [12]float64{9, 8, 9, 11, 16, 21, 24, 25, 23, 19, 15, 11}}
	aegean        = basin{name: "Ege", fetch: 0.5, sst: [12]float64{15, 14, 15, 16, 19, 22, 24, 24, 23, 21, 18, 16}}
	mediterranean = basin{name: "Akdeniz", fetch: 0.7, sst: [12]float64{17, 17, 17, 18, 21, 25, 28, 29, 28, 25, 21, 19}}
	blackSea      = basin{name: "Karadeniz", fetch: 0.8, sst: [12]float64{9, 8, 8, 10, 15, 21, 25, 26, 23, 19, 15, 11}}
)

var hubBasins = map[string]basin{
	"istanbul": marmara,
	"izmir":    aegean,
	"antalya":  mediterranean,
	"trabzon":  blackSea,
}

// Observation is a normalized sea reading.
type Observation struct {
	WaveHeightM   float64
	WavePeriodS   float64
	WaveDirection float64
	SeaTempC      float64
	WindKph       float64
}

// Estimator builds marine records.
type Estimator struct {
	clock clockwork.Clock
}

// NewEstimator creates an Estimator.
func NewEstimator(clock clockwork.Clock) *Estimator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Estimator{clock: clock}
}

// Estimate derives sea conditions at hubID from wind speed alone. It returns nil
// for hubs without a known sea basin.
func (e *Estimator) Estimate(hubID, hubName string, windKph float64) *island.MarineEstimate {
	b, ok := hubBasins[hubID]
	if !ok {
		return nil
	}
	now := e.clock.Now()

	// Fully developed sea scaled down by basin fetch.
	ms := math.Max(0, windKph) / 3.6
	height := math.Min(6, 0.0246*ms*ms*b.fetch)

	return e.FromObservation(hubName, Observation{
		WaveHeightM: height,
		WavePeriodS: 3 + 3.5*math.Sqrt(height),
		SeaTempC:    b.sst[now.Month()-1],
		WindKph:     windKph,
	})
}

// FromObservation turns a reading into a widget record.
func (e *Estimator) FromObservation(hubName string, o Observation) *island.MarineEstimate {
	height := round1(o.WaveHeightM)
	m := &island.MarineEstimate{
		Hub:           hubName,
		WaveHeightM:   height,
		WavePeriodS:   round1(o.WavePeriodS),
		WaveDirection: o.WaveDirection,
		SeaTempC:      round1(o.SeaTempC),
		WindKph:       round1(o.WindKph),
		State:         StateFromHeight(height),
		LastUpdated:   e.clock.Now().UTC(),
	}
	m.Narrative = Narrate(m)
	return m
}

// StateFromHeight classifies significant wave height in metres.
func StateFromHeight(h float64) island.SeaState {
	switch {
	case h < 0.5:
		return island.SeaCalm
	case h < 1.25:
		return island.SeaSlight
	case h < 2.5:
		return island.SeaModerate
	default:
		return island.SeaRough
	}
}

var stateText = map[island.SeaState]string{
	island.SeaCalm:     "deniz sakin",
	island.SeaSlight:   "hafif dalgalı",
	island.SeaModerate: "orta dalgalı",
	island.SeaRough:    "dalgalı, küçük tekneler için dikkat",
}

// Narrate builds the marine narrative from the record's own fields.
func Narrate(m *island.MarineEstimate) string {
	return fmt.Sprintf("%s açıkları: dalga boyu %.1f m (%s), periyot %.0f sn. Deniz suyu %.0f°C.",
		m.Hub, m.WaveHeightM, stateText[m.State], m.WavePeriodS, m.SeaTempC)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
